// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container detects a local container runtime and runs one-shot
// conversion containers through it.
package container

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Runtime runs conversion containers.
type Runtime interface {
	// Name returns the runtime binary ("docker" or "podman").
	Name() string

	// Available reports whether the binary is on PATH and its daemon or
	// service answers.
	Available(ctx context.Context) bool

	// ImageExists returns nil when image is present locally. Images are
	// never pulled.
	ImageExists(ctx context.Context, image string) error

	// Run starts image with networking disabled, feeds it stdin and copies
	// its standard output to stdout.
	Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error
}

// flavor describes one supported runtime CLI. Only the image check differs
// between docker and podman.
type flavor struct {
	bin        string
	imageCheck []string
}

// flavors are tried in order by DetectRuntime.
var flavors = []flavor{
	{bin: "docker", imageCheck: []string{"image", "inspect"}},
	{bin: "podman", imageCheck: []string{"image", "exists"}},
}

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	// Quiet runs a command and discards its output.
	Quiet(ctx context.Context, name string, args ...string) error
	// Pipe runs a command with the given standard streams. Its standard
	// error is folded into the returned error.
	Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error
}

type osExecutor struct{}

func (osExecutor) LookPath(file string) (string, error) { return exec.LookPath(file) }

func (osExecutor) Quiet(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (osExecutor) Pipe(ctx context.Context, name string, args []string, stdin io.Reader, stdout io.Writer) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = stdin, stdout, &stderr
	err := cmd.Run()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
	}
	return err
}

// cli is a Runtime driven through a container CLI binary.
type cli struct {
	flavor
	exec executor
}

func (c *cli) Name() string { return c.bin }

func (c *cli) Available(ctx context.Context) bool {
	if _, err := c.exec.LookPath(c.bin); err != nil {
		return false
	}
	return c.exec.Quiet(ctx, c.bin, "info") == nil
}

func (c *cli) ImageExists(ctx context.Context, image string) error {
	args := append(append([]string{}, c.imageCheck...), image)
	if err := c.exec.Quiet(ctx, c.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, c.bin, err)
	}
	return nil
}

// runArgs builds the arguments of a throwaway, offline, interactive run.
func runArgs(image string) []string {
	return []string{"run", "--rm", "-i", "--network", "none", image}
}

func (c *cli) Run(ctx context.Context, image string, stdin io.Reader, stdout io.Writer) error {
	if err := c.exec.Pipe(ctx, c.bin, runArgs(image), stdin, stdout); err != nil {
		return fmt.Errorf("running %s container %s: %w", c.bin, image, err)
	}
	return nil
}

// DetectRuntime returns the first available runtime, preferring docker.
func DetectRuntime(ctx context.Context) (Runtime, error) {
	return detectRuntime(ctx, osExecutor{})
}

func detectRuntime(ctx context.Context, ex executor) (Runtime, error) {
	names := make([]string, 0, len(flavors))
	for _, f := range flavors {
		rt := &cli{flavor: f, exec: ex}
		if rt.Available(ctx) {
			return rt, nil
		}
		names = append(names, f.bin)
	}
	return nil, fmt.Errorf("no container runtime available: tried %s", strings.Join(names, ", "))
}
