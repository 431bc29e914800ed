package main

import (
	"flag"
	"log"

	"github.com/golang/glog"

	"github.com/robotalks/uart.go/pkg/bridge"
	"github.com/robotalks/uart.go/pkg/env"
	fx "github.com/robotalks/uart.go/pkg/framework"
)

func init() {
	env.SetupFlags()
	bridge.SetupFlags()
}

func main() {
	flag.Parse()

	e := env.NewConfig().MustNewEnv()
	b := bridge.NewConfig().MustNewBridge(e)
	glog.Infof("bridging %s on %s", b.Peer, b.Endpoint.Config)

	runner := fx.NewRunner().HandleSignals()
	runner.Go(fx.NamedRun("bridge", b))
	err := runner.Wait()
	stats := b.Stats()
	glog.Infof("received %d (%d line errors, %d truncated), transmitted %d",
		stats.Received, stats.LineErrors, stats.Truncated, stats.Transmitted)
	e.Close()
	glog.Flush()
	if err != nil {
		log.Fatalln(err)
	}
}
