package main

//go-build: CGO_ENABLED=0

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/mos.go/pkg/app/sunroof"
	"github.com/robotalks/mos.go/pkg/comm"
	"github.com/robotalks/mos.go/pkg/comm/mqtt"
	"github.com/robotalks/mos.go/pkg/comm/websocket"
	"github.com/robotalks/mos.go/pkg/env"
	"github.com/robotalks/mos.go/pkg/frame"
	fx "github.com/robotalks/mos.go/pkg/framework"
	"github.com/robotalks/mos.go/pkg/hal"
	"github.com/robotalks/mos.go/pkg/mos"
	"github.com/robotalks/mos.go/pkg/msgs"
)

var (
	travelTime     = 3 * time.Second
	watchdogWindow = time.Second
)

func init() {
	env.SetupFlags()
	flag.DurationVar(&travelTime, "travel", travelTime, "Simulated roof travel time until the limit switch.")
	flag.DurationVar(&watchdogWindow, "watchdog", watchdogWindow, "Watchdog window.")
}

// simulateTravel raises the limit switch after the motor ran for the
// travel time.
func simulateTravel(motor *hal.LogMotor, roof *sunroof.Sunroof) fx.RunFunc {
	return func(ctx context.Context) error {
		ticker := time.NewTicker(travelTime / 10)
		defer ticker.Stop()
		var started time.Time
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case now := <-ticker.C:
				switch {
				case !motor.State().Running:
					started = time.Time{}
				case started.IsZero():
					started = now
				case now.Sub(started) >= travelTime:
					glog.Info("limit switch reached")
					roof.Limit()
					started = time.Time{}
				}
			}
		}
	}
}

func main() {
	flag.Parse()
	conf := env.MustNewConfig()

	cfg := mos.DefaultConfig()
	cfg.Resolution = conf.Resolution
	wd := hal.NewSimWatchdog(watchdogWindow)
	sys, err := mos.New(cfg, mos.Devices{Watchdog: wd, LED: &hal.LogLED{Name: "sys"}})
	if err != nil {
		log.Fatalln(err)
	}
	motor := &hal.LogMotor{Name: "roof"}
	roof := sunroof.New(motor)
	if err := sys.Setup(roof); err != nil {
		log.Fatalln(err)
	}
	defer roof.Close()

	runner := fx.NewRunner().HandleSignals()
	runner.Go(
		fx.NamedRun("system", fx.RunFunc(sys.Run)),
		fx.NamedRun("watchdog", fx.RunFunc(wd.Run)),
		fx.NamedRun("travel", simulateTravel(motor, roof)),
	)

	mux := http.NewServeMux()
	mux.Handle("/link", websocket.NewServer(frame.NewSlipServer(roof.Server(), frame.Options{}), sys.Wake))
	httpServer := &http.Server{Addr: conf.Listen, Handler: mux}
	runner.Go(fx.NamedRun("http", fx.RunFunc(func(ctx context.Context) error {
		glog.Infof("link on ws://%s/link", conf.Listen)
		return fx.RunWithContextCloser(ctx, httpServer, httpServer.ListenAndServe)
	})))

	if conf.Serial.Device != "" {
		port, err := conf.OpenSerial()
		if err != nil {
			log.Fatalln(err)
		}
		link := comm.NewLink(port, frame.NewSlipServer(roof.Server(), frame.Options{}))
		link.OnReply = sys.Wake
		runner.Go(fx.NamedRun("serial", fx.RunFunc(func(ctx context.Context) error {
			return fx.RunWithContextCloser(ctx, port, func() error { return link.Run(ctx) })
		})))
	}

	if conf.MQTTURL != "" {
		q := conf.MustConnectMQTT("mosd")
		defer q.Close()
		bus := hal.NewSimBus()
		bus.Attach(sys.WakeOnFrame(frame.NewServer(roof.Server(), frame.Options{})))
		bridge := mqtt.NewBridge(q, comm.NewBusClient(bus), conf.DeviceID)
		snapshot := func() *msgs.DeviceStatus {
			st := sys.Status()
			st.State = sunroof.StateName(roof.State())
			return st
		}
		if _, err := sys.Scheduler().AddTask(bridge.StatusTask(snapshot), conf.StatusPeriod, conf.StatusPeriod); err != nil {
			log.Fatalln(err)
		}
		runner.Go(fx.NamedRun("bridge", fx.RunFunc(bridge.Run)))
	}

	if err := runner.Wait(); err != nil {
		glog.Error(err)
		glog.Flush()
		log.Fatalln(err)
	}
}
