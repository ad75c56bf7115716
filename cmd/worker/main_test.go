package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openprocurement/openprocurement.auctions.lease/internal/app"
	_ "github.com/openprocurement/openprocurement.auctions.lease/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	main()
}
