package utils_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tgmarket/internal/utils"
)

func TestNewMasterPassword(t *testing.T) {
	p1 := utils.NewMasterPassword()
	p2 := utils.NewMasterPassword()

	assert.True(t, strings.HasPrefix(p1, "MP_"))
	assert.NotEqual(t, p1, p2)
}
