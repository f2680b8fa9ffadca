package statusbar

import (
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/messages"
)

func TestCategoryAtWraps(t *testing.T) {
	assert.Equal(t, 5, TabCount())
	assert.Equal(t, api.Category(""), CategoryAt(0))
	assert.Equal(t, api.CategoryEconomy, CategoryAt(1))
	assert.Equal(t, api.CategoryHumor, CategoryAt(-1))
	assert.Equal(t, api.Category(""), CategoryAt(5))
}

func TestViewShowsState(t *testing.T) {
	m := New()
	m.SetSize(120)

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "전체")
	assert.Contains(t, out, "L:login")
	assert.NotContains(t, out, "live")

	m.SetUser("hams")
	m.SetConn(messages.ConnConnected)
	m.SetUnread(4)
	m.SetOffline(true)
	m.SetStatus("max depth 3 reached", true)

	out = ansi.Strip(m.View())
	assert.Contains(t, out, "hams")
	assert.Contains(t, out, "live")
	assert.Contains(t, out, " 4 ")
	assert.Contains(t, out, "OFFLINE")
	assert.Contains(t, out, "max depth 3 reached")
	assert.NotContains(t, out, "L:login")
}
