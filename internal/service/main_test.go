package service

import (
	"os"
	"testing"

	"mentorloop-go/internal/config"
	"mentorloop-go/pkg/log"
)

func TestMain(m *testing.M) {
	log.Init("error", "console", "")
	config.Conf.Agent.HistoryWindow = 20
	config.Conf.Agent.MaxToolRounds = 4
	config.Conf.Agent.Phase1AdvisoryDays = 30
	config.Conf.Agent.Phase2AdvisoryDays = 60
	os.Exit(m.Run())
}
