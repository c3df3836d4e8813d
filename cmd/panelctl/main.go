package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/panel"
	"github.com/BeatGlow/panel/internal/config"
	"github.com/BeatGlow/panel/internal/logging"
)

func main() {
	configFlag := flag.String("config", "/etc/panel.yaml", "Panel wiring configuration")
	debugFlag := flag.Bool("debug", false, "Enable debug logging")
	cyclesFlag := flag.Int("n", 1, "Number of power cycles (cycle)")
	holdFlag := flag.Duration("hold", 5*time.Second, "Time to keep the panel on per cycle (cycle)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <mode|on|cycle>\n", os.Args[0])
		os.Exit(1)
	}

	// mode needs no hardware and no configuration.
	command := strings.ToLower(flag.Arg(0))
	if command == "mode" {
		m := panel.DefaultMode
		fmt.Printf("%s %dkHz h %d %d %d %d v %d %d %d %d %dx%dmm\n", m, m.Clock,
			m.HDisplay, m.HSyncStart, m.HSyncEnd, m.HTotal,
			m.VDisplay, m.VSyncStart, m.VSyncEnd, m.VTotal,
			m.WidthMM, m.HeightMM)
		return
	}

	conf, err := config.Load(afero.NewOsFs(), *configFlag)
	if err != nil {
		fatal(err)
	}
	logging.Init(conf.LogFile, conf.Debug || *debugFlag)

	if _, err = host.Init(); err != nil {
		fatal(err)
	}

	p, err := open(conf)
	if err != nil {
		fatal(err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Error().Err(err).Msg("close failed")
		}
	}()
	log.Info().Str("config", *configFlag).Stringer("mode", p.Mode()).Msg("panel ready")

	switch command {
	case "on":
		err = on(p)
	case "cycle":
		err = cycle(p, *cyclesFlag, *holdFlag)
	default:
		err = fmt.Errorf("unsupported command %q", command)
	}
	if err != nil {
		log.Error().Err(err).Msg(command + " failed")
		_ = p.Close()
		os.Exit(1)
	}
}

func powerOn(p panel.Panel) error {
	if err := p.Prepare(); err != nil {
		return err
	}
	return p.Enable()
}

func powerOff(p panel.Panel) {
	_ = p.Disable()
	_ = p.Unprepare()
}

// on keeps the panel on until interrupted.
func on(p panel.Panel) error {
	if err := powerOn(p); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	fmt.Println("hit control-c to stop...")
	sig := <-sigs
	log.Info().Stringer("signal", sig).Msg("powering off")

	powerOff(p)
	return nil
}

func cycle(p panel.Panel, n int, hold time.Duration) error {
	for i := 0; i < n; i++ {
		start := time.Now()
		if err := powerOn(p); err != nil {
			return fmt.Errorf("cycle %d: %w", i+1, err)
		}
		log.Info().Int("cycle", i+1).Dur("took", time.Since(start)).Msg("on")
		time.Sleep(hold)
		powerOff(p)
		log.Info().Int("cycle", i+1).Msg("off")
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
