package command

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	assert.Equal(t, CommandMsg{Name: "search", Arg: "invoice march"}, Parse("  Search invoice march "))
	assert.Equal(t, CommandMsg{Name: "refresh"}, Parse("refresh"))
}

func TestEnterEmitsCommand(t *testing.T) {
	m := New("", 80, 24)
	for _, r := range "unread" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, CommandMsg{Name: "unread"}, cmd())
}

func TestEmptyEnterDoesNothing(t *testing.T) {
	m := New("", 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestEscCancels(t *testing.T) {
	m := New("", 80, 24)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}
