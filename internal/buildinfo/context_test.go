package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContext_Getters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		ctx       *Context
		version   string
		buildDate string
	}{
		{name: "nil context", ctx: nil, version: "unknown", buildDate: "unknown"},
		{name: "empty values", ctx: &Context{}, version: "unknown", buildDate: "unknown"},
		{
			name:      "populated",
			ctx:       &Context{Version: "1.0.0-beta.1", BuildDate: "2024-03-09T14:00:00Z"},
			version:   "1.0.0-beta.1",
			buildDate: "2024-03-09T14:00:00Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.version, tt.ctx.GetVersion())
			assert.Equal(t, tt.buildDate, tt.ctx.GetBuildDate())
		})
	}
}
