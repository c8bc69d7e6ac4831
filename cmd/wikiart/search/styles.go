package searchcmder

import "charm.land/lipgloss/v2"

var rankStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
