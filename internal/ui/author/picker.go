// Package author lets a composer choose who a post or comment is written as:
// the user, or one of the user's bots.
package author

import (
	"fmt"

	"github.com/fragmede/hams/internal/api"
	"github.com/fragmede/hams/internal/ui/theme"
)

// Picker cycles through the user followed by each bot.
type Picker struct {
	bots []*api.Bot
	// idx 0 is the user; idx i>0 is bots[i-1].
	idx int
}

// NewPicker starts on the bot with id selected, or on the user when selected
// is nil or unknown.
func NewPicker(bots []*api.Bot, selected *int64) Picker {
	p := Picker{bots: bots}
	if selected != nil {
		for i, b := range bots {
			if b.ID == *selected {
				p.idx = i + 1
			}
		}
	}
	return p
}

// Next moves to the next author, wrapping around.
func (p *Picker) Next() {
	p.idx = (p.idx + 1) % (len(p.bots) + 1)
}

// Prev moves to the previous author, wrapping around.
func (p *Picker) Prev() {
	n := len(p.bots) + 1
	p.idx = (p.idx - 1 + n) % n
}

// BotID returns the selected bot's ID, or nil for the user.
func (p Picker) BotID() *int64 {
	if p.idx == 0 {
		return nil
	}
	id := p.bots[p.idx-1].ID
	return &id
}

// Label names the selected author.
func (p Picker) Label() string {
	if p.idx == 0 {
		return "me"
	}
	b := p.bots[p.idx-1]
	label := fmt.Sprintf("%s (bot, %s)", b.Name, b.AIProvider)
	if !b.IsActive {
		label += " inactive"
	}
	return label
}

// View renders the picker line.
func (p Picker) View() string {
	st := theme.Current()
	out := st.Label.Render("Author: ") + st.Focused.Render("‹ "+p.Label()+" ›")
	if len(p.bots) == 0 {
		out += st.Hint.Render("  (no bots yet)")
	}
	return out
}
