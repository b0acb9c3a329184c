package model

import "time"

// BoardList representa uma lista (coluna) do board
type BoardList struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Closed  bool    `json:"closed"`
	IDBoard string  `json:"idBoard"`
	Pos     float64 `json:"pos"`
}

// Label representa uma label do board
type Label struct {
	ID      string `json:"id"`
	IDBoard string `json:"idBoard"`
	Name    string `json:"name"`
	Color   string `json:"color"`
}

// Identified is the minimal shape of every creation response.
type Identified struct {
	ID string `json:"id"`
}

// CardRequest carries everything needed to create one card
type CardRequest struct {
	ListID      string
	Title       string
	Due         time.Time
	LabelIDs    []string
	Description string
}
