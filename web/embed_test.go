package web

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticAssets(t *testing.T) {
	for _, name := range []string{"static/css/app.css", "static/js/board.js"} {
		data, err := fs.ReadFile(Static, name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, data, name)
	}
}

func TestBoardScriptUsesETagAndCSRF(t *testing.T) {
	data, err := fs.ReadFile(Static, "static/js/board.js")
	require.NoError(t, err)
	script := string(data)
	assert.Contains(t, script, "If-None-Match")
	assert.Contains(t, script, "X-CSRF-Token")
	assert.Contains(t, script, "needsInvoice")
}
