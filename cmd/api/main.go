package main

import (
	"os"

	"github.com/yigit/jobportal/internal/pkg/logger"
	"github.com/yigit/jobportal/internal/server"
)

// @title Job Portal
// @version 1.0
// @description Job postings, CV and cover letter uploads, and applications for students and employers.
// @description GET routes return page view models; form posts answer with 303 redirects and flash messages.

// @host localhost:8080
// @BasePath /
// @schemes http https

func main() {
	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
