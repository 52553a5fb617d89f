package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/WinstonKong/bubble-chat/internal/app"
	"github.com/WinstonKong/bubble-chat/internal/config"
	"github.com/WinstonKong/bubble-chat/internal/session"
)

func main() {
	userFlag := flag.String("user", "", "user ID to sign in as (overrides config default)")
	serverFlag := flag.String("server", "", "websocket server URL (overrides config)")
	flag.Parse()

	cfg, err := config.Load(session.ConfigPath())
	if err != nil {
		cfg = config.Default()
	}
	if *serverFlag != "" {
		cfg.ServerURL = *serverFlag
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	uid, err := session.ResolveUser(*userFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fxApp := fx.New(
		app.Module(app.Params{UserID: uid, Config: cfg}),
	)

	fxApp.Run()
}
