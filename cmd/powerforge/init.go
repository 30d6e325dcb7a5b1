package main

import "powerforge/internal/config"

// InitCmd writes a starter tool configuration file.
type InitCmd struct {
	Force bool `help:"Overwrite an existing configuration file"`
}

func (i *InitCmd) Run(root *CLI) error {
	return config.Init(root.Config, i.Force)
}
