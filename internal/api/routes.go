package api

func (s *Server) setupRoutes() {
	s.router.GET("/", s.healthHandler.WorkerInfo)
	s.router.GET("/health", s.healthHandler.HealthCheck)

	counter := s.router.Group("/counter")
	{
		counter.GET("/stats", s.counterHandler.GetStats)
		counter.GET("/counts", s.counterHandler.GetCounts)
		counter.GET("/events", s.counterHandler.GetEvents)
	}

	preview := s.router.Group("/preview")
	{
		preview.GET("", s.previewHandler.GetFrame)
		preview.GET("/stream", s.previewHandler.StreamMJPEG)
	}
}
