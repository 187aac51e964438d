package api

import (
	"github.com/lysyi3m/risk-comb/app/database"
)

type Handler struct {
	repo database.SentenceRepository
}
