package dto

import "github.com/krishhhh88/instadrive-backend/domain/model"

// AccountStatusResponse reports which providers a user has linked.
type AccountStatusResponse struct {
	Accounts map[model.Provider]bool `json:"accounts"`
}
