package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	SpawnReader      key.Binding
	SpawnUpgradeable key.Binding
	SpawnSticky      key.Binding
	SpawnWriter      key.Binding
	Complete         key.Binding
	Help             key.Binding
	Quit             key.Binding
	ScrollUp         key.Binding
	ScrollDown       key.Binding
}

var keys = keyMap{
	SpawnReader: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "spawn reader"),
	),
	SpawnUpgradeable: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "spawn upgradeable reader"),
	),
	SpawnSticky: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "spawn sticky-upgrade reader"),
	),
	SpawnWriter: key.NewBinding(
		key.WithKeys("w"),
		key.WithHelp("w", "spawn writer"),
	),
	Complete: key.NewBinding(
		key.WithKeys("ctrl+d"),
		key.WithHelp("ctrl+d", "begin graceful completion"),
	),
	Help: key.NewBinding(
		key.WithKeys("ctrl+h"),
		key.WithHelp("ctrl+h", "toggle help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "ctrl+q"),
		key.WithHelp("ctrl+c", "quit"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("↑", "scroll log"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("↓", "scroll log"),
	),
}
