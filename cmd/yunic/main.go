/*
Yunic compiles yuni source files: lexing, parsing, monomorphization,
semantic analysis, and SSA-IR codegen, reporting every diagnostic
accumulated along the way.

Usage:

	yunic [flags] [file]

The flags are:

	-v, --version
		Give the current version of yunic and then exit.

	-c, --config FILE
		Load compiler options from the given TOML profile. Unset fields
		keep their defaults.

	-o, --out FILE
		Write the lowered IR dump to FILE instead of stdout.

	--serve
		Run the HTTP compile service instead of compiling a file.

	--addr ADDRESS
		Address to listen on when --serve is given. Defaults to ":8080".

	--db DIR
		Directory for the compile service's sqlite history store.

	--admin-token TOKEN
		Bootstrap token required to mint new API keys when --serve is
		given.

	--jwt-secret SECRET
		Secret used to sign session tokens when --serve is given. A
		random secret is generated and logged if omitted, which
		invalidates outstanding tokens on every restart.

If no file is given and --serve is not set, yunic starts an interactive
REPL: each line is compiled as its own program, wrapped in a synthetic
package header if one is not already present.
*/
package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/dekarrin/yunic"
	"github.com/dekarrin/yunic/internal/compilesvc"
	"github.com/dekarrin/yunic/internal/compilesvc/dao"
	"github.com/dekarrin/yunic/internal/config"
)

// Version is the current version of yunic.
const Version = "0.1.0"

const (
	// ExitSuccess indicates a successful program execution.
	ExitSuccess = iota

	// ExitCompileError indicates the source failed to compile.
	ExitCompileError

	// ExitInitError indicates an issue initializing the compiler or
	// service, before any source was read.
	ExitInitError
)

var (
	returnCode int = ExitSuccess

	flagVersion    = pflag.BoolP("version", "v", false, "Give the current version of yunic and then exit")
	flagConfig     = pflag.StringP("config", "c", "", "Load compiler options from the given TOML profile")
	flagOut        = pflag.StringP("out", "o", "", "Write the lowered IR dump to FILE instead of stdout")
	flagServe      = pflag.Bool("serve", false, "Run the HTTP compile service instead of compiling a file")
	flagAddr       = pflag.String("addr", ":8080", "Address to listen on when --serve is given")
	flagDB         = pflag.String("db", ".", "Directory for the compile service's sqlite history store")
	flagAdminToken = pflag.String("admin-token", "", "Bootstrap token required to mint new API keys when --serve is given")
	flagJWTSecret  = pflag.String("jwt-secret", "", "Secret used to sign session tokens when --serve is given")
)

func main() {
	defer func() {
		if panicErr := recover(); panicErr != nil {
			panic(fmt.Sprintf("unrecoverable panic occurred: %v", panicErr))
		} else {
			os.Exit(returnCode)
		}
	}()

	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", Version)
		return
	}

	cfg := config.Default()
	if *flagConfig != "" {
		var err error
		cfg, err = config.Load(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
	}

	if *flagServe {
		runServe(cfg)
		return
	}

	args := pflag.Args()
	if len(args) == 0 {
		runREPL(cfg)
		return
	}

	runCompileFile(args[0], cfg)
}

func runCompileFile(path string, cfg config.Profile) {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}

	result := yunic.Compile(string(data), cfg)
	for _, line := range result.Bag.Strings(cfg.DiagWidth) {
		fmt.Fprintln(os.Stderr, line)
	}

	if result.Module == nil {
		returnCode = ExitCompileError
		return
	}

	out := os.Stdout
	if *flagOut != "" {
		f, err := os.Create(*flagOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		defer f.Close()
		out = f
	}
	fmt.Fprint(out, compilesvc.RenderModule(result.Module))
	fmt.Fprintln(os.Stderr, yunic.Summary(result))
}

// runREPL reads one program per line from stdin using GNU-readline-style
// editing and history, compiling each independently; there is no shared
// state between lines since the pipeline has no notion of incremental
// compilation.
func runREPL(cfg config.Profile) {
	rl, err := readline.NewEx(&readline.Config{Prompt: "yunic> "})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err != nil {
			if err != io.EOF && err != readline.ErrInterrupt {
				fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return
		}

		src := line
		if !strings.HasPrefix(src, "package ") {
			src = "package repl\n" + src
		}

		result := yunic.Compile(src, cfg)
		for _, d := range result.Bag.Strings(cfg.DiagWidth) {
			fmt.Println(d)
		}
		if result.Module != nil {
			fmt.Println(yunic.Summary(result))
		}
	}
}

func runServe(cfg config.Profile) {
	if *flagAdminToken == "" {
		fmt.Fprintln(os.Stderr, "ERROR: --admin-token is required with --serve")
		returnCode = ExitInitError
		return
	}

	secret := []byte(*flagJWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: generate jwt secret: %s\n", err.Error())
			returnCode = ExitInitError
			return
		}
		fmt.Fprintln(os.Stderr, "WARNING: no --jwt-secret given, generated a random one; outstanding tokens will not survive a restart")
	}

	store, err := dao.NewDatastore(*flagDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
		return
	}
	defer store.Close()

	svc := compilesvc.New(store, secret, *flagAdminToken, cfg)

	fmt.Fprintf(os.Stderr, "yunic compile service listening on %s\n", *flagAddr)
	if err := http.ListenAndServe(*flagAddr, svc.Router()); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		returnCode = ExitInitError
	}
}
