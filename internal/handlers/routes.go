package handlers

import "github.com/go-chi/chi/v5"

// MatchRoutes mounts the authenticated matchmaking endpoints on r
func MatchRoutes(r chi.Router, pool *PoolHandler, match *MatchHandler, chat *ChatHandler) {
	r.Route("/matches", func(r chi.Router) {
		r.Get("/pool", pool.CurrentPool)
		r.Post("/request", match.RequestMeetup)

		r.Get("/mutual", match.ListMatches)
		r.Route("/mutual/{match_id}", func(r chi.Router) {
			r.Get("/", match.GetMatch)
			r.Post("/agree", match.Agree)
			r.Post("/report", match.Report)
			r.Post("/send_message", chat.SendMessage)
			r.Get("/messages", chat.ListMessages)
		})
	})
}
