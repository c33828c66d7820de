package main

import (
	"encoding/json"
	"math/rand"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/marinedge/vfd-sentinel/internal/config"
	"github.com/marinedge/vfd-sentinel/internal/domain"
)

// The simulator publishes one plausible telemetry batch per second, with
// occasional thermal excursions on SWP2 so the anomaly lifecycle gets
// exercised end to end.
func main() {
	if err := config.Load(); err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	opts := mqtt.NewClientOptions().AddBroker(config.MQTTBroker()).SetClientID("vfd-simulator")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatal().Err(token.Error()).Msg("mqtt connect")
	}
	defer client.Disconnect(250)

	units := config.Units()
	for cycle := 0; cycle < 600; cycle++ {
		batch := map[string]interface{}{
			"timestamp": time.Now(),
			"units":     buildSamples(units, cycle),
		}
		payload, _ := json.Marshal(batch)
		token := client.Publish(config.MQTTTopic(), 0, false, payload)
		token.Wait()
		time.Sleep(time.Second)
	}
	log.Info().Msg("simulation done")
}

func buildSamples(units []domain.Unit, cycle int) []domain.TelemetrySample {
	samples := make([]domain.TelemetrySample, 0, len(units))
	for _, u := range units {
		s := domain.TelemetrySample{
			Name:               u.Name,
			Type:               u.Type,
			FrequencyHz:        48 + rand.Float64()*4,
			MotorThermalPct:    55 + rand.Float64()*10,
			HeatsinkTempC:      40 + rand.Float64()*8,
			InverterThermalPct: 50 + rand.Float64()*10,
			MotorCurrentA:      u.RatedCurrentA * (0.7 + rand.Float64()*0.15),
			Timestamp:          time.Now(),
			Complete:           true,
		}
		if u.Type == domain.EngineRoomFan {
			s.RunningFwd = true
		} else {
			s.Running = true
		}
		base := s.MotorCurrentA / 3
		s.PhaseUCurrentA = base * (0.98 + rand.Float64()*0.04)
		s.PhaseVCurrentA = base * (0.98 + rand.Float64()*0.04)
		s.PhaseWCurrentA = base * (0.98 + rand.Float64()*0.04)

		// Drive SWP2 into a thermal excursion for a stretch of cycles.
		if u.Name == "SWP2" && cycle > 60 && cycle < 240 {
			s.MotorThermalPct = 92 + rand.Float64()*6
			s.HeatsinkTempC = 68 + rand.Float64()*5
			s.WarningWord = 0x0004
			s.OverTempCount = 1
		}
		samples = append(samples, s)
	}
	return samples
}
