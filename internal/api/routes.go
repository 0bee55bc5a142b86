package api

func (s *Server) routes() {
	auth := RequireAuth(s.secret)

	s.app.Get("/healthz", s.health)

	habits := s.app.Group("/habits")
	habits.Get("/public", s.listPublic)
	habits.Get("/user/:email", auth, s.listByOwner)
	habits.Post("/", auth, s.createHabit)
	habits.Get("/:id", OptionalAuth(s.secret), s.getHabit)
	habits.Put("/:id", auth, s.updateHabit)
	habits.Delete("/:id", auth, s.deleteHabit)
	habits.Post("/:id/restore", auth, s.restoreHabit)
	habits.Post("/:id/complete", auth, s.completeHabit)
	habits.Patch("/:id/complete", auth, s.completeHabit)
}
