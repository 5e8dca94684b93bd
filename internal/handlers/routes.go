package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the ranking API on router, normally the /api/v1 group.
func RegisterRoutes(router fiber.Router, rank *RankHandler, batches *BatchHandler, search *SearchHandler) {
	router.Post("/rank", rank.HandleRank)
	router.Get("/batches/:id", batches.HandleGetBatch)
	router.Delete("/batches/:id", batches.HandleDeleteBatch)
	router.Get("/candidates/search", search.HandleSearch)
}
