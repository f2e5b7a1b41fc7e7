// Package config locates the lab directories a sweep works in.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables read by the tools.
const (
	EnvLabPath = "LAB_PATH"
	EnvM5Path  = "M5_PATH"
)

// DefaultEnvFile is loaded before the environment is read.
const DefaultEnvFile = ".env"

// An Error reports a required environment variable that is not set.
type Error struct {
	Var string
}

func (e *Error) Error() string {
	return fmt.Sprintf("environment variable %s is not set", e.Var)
}

// LoadEnv reads variables from the given files into the environment.
// Variables already set are kept. Files that do not exist are skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{DefaultEnvFile}
	}

	for _, f := range files {
		err := godotenv.Load(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return fmt.Errorf("loading %s: %w", f, err)
		}
	}

	return nil
}

// Require returns the value of an environment variable that must be set.
func Require(name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", &Error{Var: name}
	}

	return v, nil
}

// ResultsRoot returns where the runs of the micro-benchmark sweep are
// written inside the lab directory.
func ResultsRoot(labPath string) string {
	return filepath.Join(labPath, "results", "X86", "run_micro")
}

// SimulatorPath returns the simulator binary inside a gem5 checkout.
func SimulatorPath(m5Path string) string {
	return filepath.Join(m5Path, "build", "X86", "gem5.opt")
}

// Paths are the locations resolved from the environment.
type Paths struct {
	LabPath   string
	M5Path    string
	Results   string
	Simulator string
}

// Resolve reads LAB_PATH, and M5_PATH when needSimulator is set.
func Resolve(needSimulator bool) (Paths, error) {
	lab, err := Require(EnvLabPath)
	if err != nil {
		return Paths{}, err
	}

	p := Paths{
		LabPath: lab,
		Results: ResultsRoot(lab),
	}

	if !needSimulator {
		return p, nil
	}

	m5, err := Require(EnvM5Path)
	if err != nil {
		return Paths{}, err
	}

	p.M5Path = m5
	p.Simulator = SimulatorPath(m5)

	return p, nil
}
