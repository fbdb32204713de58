package main

import (
	"errors"
	"fmt"
	"testing"

	"fleetbook/internal/fleet"

	"github.com/stretchr/testify/assert"
)

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Failed to generate Excel. Please check your data logs.",
		userMessage(fmt.Errorf("report: %w", fleet.ErrExportFailed)))
	assert.Equal(t, "vehicle not found", userMessage(fleet.ErrVehicleNotFound))
	assert.Equal(t, "boom", userMessage(errors.New("boom")))
}
