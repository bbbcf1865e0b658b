package db

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"calcapi/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("sqlite", "file::memory:")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestModels_UsersFirst(t *testing.T) {
	models := Models()
	assert.Len(t, models, 2)
	assert.IsType(t, &model.User{}, models[0])
	assert.IsType(t, &model.Calculation{}, models[1])
}
