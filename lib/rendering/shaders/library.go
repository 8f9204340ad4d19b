package shaders

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type ProgramKind int

const (
	// Passthrough samples the texture as is (Hap, Hap Alpha).
	Passthrough ProgramKind = iota
	// YCoCgDecode converts scaled YCoCg back to RGB (Hap Q).
	YCoCgDecode
)

var programSources = map[ProgramKind][2]string{
	Passthrough: {"hap.vert", "passthrough.frag"},
	YCoCgDecode: {"hap.vert", "hapq.frag"},
}

func (k ProgramKind) String() string {
	switch k {
	case Passthrough:
		return "passthrough"
	case YCoCgDecode:
		return "ycocg-decode"
	default:
		return fmt.Sprintf("ProgramKind(%d)", int(k))
	}
}

var ErrNotAcquired = errors.New("shader library has no holders")

// Library builds the movie programs once and shares them between all
// movies. Every movie holds a reference from open until close; the programs
// are deleted when the last reference goes away and built again on the next
// use. Program and Release touch GL objects and must run on the render
// thread when backed by a GLCompiler.
type Library struct {
	compiler Compiler
	data     ShaderData
	log      *slog.Logger

	mu       sync.Mutex
	refs     int
	once     *sync.Once
	programs map[ProgramKind]uint32
	err      error
	builds   int
}

func NewLibrary(compiler Compiler, glslVersion string, logger *slog.Logger) *Library {
	if glslVersion == "" {
		glslVersion = DefaultGLSLVersion
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Library{
		compiler: compiler,
		data:     ShaderData{GLSLVersion: glslVersion},
		log:      logger,
		once:     &sync.Once{},
	}
}

func (l *Library) Acquire() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refs++
}

// Release drops a reference taken by Acquire.
func (l *Library) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refs == 0 {
		l.log.Warn("shader library released more often than acquired")
		return
	}
	l.refs--
	if l.refs > 0 {
		return
	}
	for kind, program := range l.programs {
		l.log.Debug("deleting program", "kind", kind, "program", program)
		l.compiler.Delete(program)
	}
	l.programs = nil
	l.err = nil
	l.once = &sync.Once{}
}

// Program returns the program for kind, building all programs on first use.
// A build failure is returned on every call until the library is fully
// released.
func (l *Library) Program(kind ProgramKind) (uint32, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refs == 0 {
		return 0, ErrNotAcquired
	}
	l.once.Do(l.build)
	if l.err != nil {
		return 0, l.err
	}
	program, ok := l.programs[kind]
	if !ok {
		return 0, fmt.Errorf("no program for %s", kind)
	}
	return program, nil
}

func (l *Library) Refs() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.refs
}

// Builds is the number of times the programs were compiled.
func (l *Library) Builds() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.builds
}

// build runs with l.mu held.
func (l *Library) build() {
	l.builds++
	shaderer, err := NewShaderer()
	if err != nil {
		l.err = fmt.Errorf("could not get shaders: %w", err)
		return
	}

	programs := make(map[ProgramKind]uint32, len(programSources))
	for kind, names := range programSources {
		program, err := l.buildOne(shaderer, names[0], names[1])
		if err != nil {
			for _, p := range programs {
				l.compiler.Delete(p)
			}
			l.err = fmt.Errorf("could not build %s program: %w", kind, err)
			l.log.Error("shader build failed", "kind", kind, "err", err)
			return
		}
		programs[kind] = program
		l.log.Info("built program", "kind", kind, "program", program)
	}
	l.programs = programs
}

func (l *Library) buildOne(shaderer *Shaderer, vertName, fragName string) (uint32, error) {
	vertexShader, err := shaderer.GetShaderSource(vertName, &l.data)
	if err != nil {
		return 0, fmt.Errorf("could not get vertex shader: %w", err)
	}

	fragmentShader, err := shaderer.GetShaderSource(fragName, &l.data)
	if err != nil {
		return 0, fmt.Errorf("could not get fragment shader: %w", err)
	}

	return l.compiler.Compile(vertexShader, fragmentShader)
}
