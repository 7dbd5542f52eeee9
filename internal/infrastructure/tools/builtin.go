package tools

import (
	"context"
	"fmt"

	"github.com/doeshing/shai-agent/internal/ports"
)

// ExecuteCommand exposes a command executor as a tool. The observation is
// the executor's "stdout: ...\nstderr: ..." rendering.
func ExecuteCommand(exec ports.CommandExecutor) Tool {
	return Tool{
		Name:        ExecuteCommandName,
		Description: "executeCommand(command: string): Executes cross-platform commands",
		Run: func(ctx context.Context, input string) (string, error) {
			res, err := exec.Execute(ctx, input)
			if err != nil {
				return "", err
			}
			return res.String(), nil
		},
	}
}

// Weather is a canned lookup with no external calls.
func Weather() Tool {
	return Tool{
		Name:        WeatherName,
		Description: "getWeatherInfo(city: string): Returns weather information for a city",
		Run: func(_ context.Context, city string) (string, error) {
			return WeatherInfo(city), nil
		},
	}
}

// WeatherInfo returns the fixed forecast for city.
func WeatherInfo(city string) string {
	return fmt.Sprintf("%s has 25°C with partly cloudy skies", city)
}

// Default builds the registry every run uses.
func Default(exec ports.CommandExecutor) (*Registry, error) {
	return NewRegistry(ExecuteCommand(exec), Weather())
}
