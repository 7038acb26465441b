package model

import "github.com/google/uuid"

type Goal struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	TargetAmount  float64 `json:"target_amount"`
	CurrentAmount float64 `json:"current_amount"`
	Deadline      string  `json:"deadline,omitempty"`
	Icon          string  `json:"icon"`
	Color         string  `json:"color"`
}

func (g *Goal) GenerateID() {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
}

type Budget struct {
	Category string  `json:"category"`
	Limit    float64 `json:"limit"`
	Spent    float64 `json:"spent"`
}
