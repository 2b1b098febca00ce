package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/urfave/cli"
	"golang.org/x/crypto/ssh/terminal"

	logsetup "qi.dev/qi/common/log"
	"qi.dev/qi/common/persistance"
	"qi.dev/qi/common/socket"
	"qi.dev/qi/common/version"
	"qi.dev/qi/directory"
	"qi.dev/qi/session"
)

var log *logging.Logger

func main() {
	app := cli.NewApp()
	app.Name = "qid"
	app.Usage = "qi service directory daemon"
	app.Version = version.CURRENT_VERSION.String()
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "config, c",
			Usage: "load configuration from `FILE`",
		},
		cli.StringFlag{
			Name:  "listen, l",
			Usage: "listen on `ADDRESS` (tcp://host:port or unix:///path)",
		},
		cli.StringFlag{
			Name:  "token, t",
			Usage: "require this authentication token, \"-\" to prompt",
		},
		cli.BoolFlag{
			Name:  "no-syslog",
			Usage: "log to stderr instead of syslog",
		},
	}
	app.Action = run
	if err := app.Run(os.Args); err != nil {
		status(logging.ERROR, err.Error()+"\n")
		os.Exit(1)
	}
}

// status prints a user-facing line on stderr, outside the logging
// pipeline, colored by the severity qid would log it at.
func status(level logging.Level, text string) {
	painter := color.New(color.FgHiGreen)
	switch {
	case level <= logging.ERROR:
		painter = color.New(color.FgHiRed)
	case level <= logging.WARNING:
		painter = color.New(color.FgHiYellow)
	}
	painter.EnableColor()
	os.Stderr.WriteString(painter.Sprint("qid ▶ " + text))
}

func run(c *cli.Context) (err error) {
	config, err := LoadConfig(c.String("config"))
	if err != nil {
		return
	}
	if c.IsSet("listen") {
		config.Listen = c.String("listen")
	}
	if c.IsSet("token") {
		config.Token = c.String("token")
	}
	if c.Bool("no-syslog") {
		config.Syslog = false
	}
	if config.Token == "-" {
		status(logging.WARNING, "authentication token: ")
		tokenBytes, promptErr := terminal.ReadPassword(int(syscall.Stdin))
		os.Stderr.WriteString("\n")
		if promptErr != nil {
			return promptErr
		}
		config.Token = string(tokenBytes)
	}

	log = logsetup.Setup("qid", logging.NOTICE, config.Syslog)

	machineId, err := persistance.MachineId()
	if err != nil {
		return
	}

	listener, err := socket.Listen(config.Listen)
	if err != nil {
		return
	}
	defer listener.Close()

	var authenticator session.Authenticator = session.PermissiveAuthenticator{}
	if config.Token != "" {
		authenticator = session.TokenAuthenticator{Token: config.Token}
	}

	dir := directory.NewInMemory(machineId)
	server := directory.NewServer(dir, log)

	go func() {
		for {
			conn, acceptErr := listener.Accept()
			if acceptErr != nil {
				log.Error("accept:", acceptErr)
				return
			}
			go serveConn(conn, authenticator, server)
		}
	}()

	log.Notice("qid listening on", config.Listen, "machine", machineId)
	status(logging.NOTICE, "service directory up on "+config.Listen+"\n")

	stopSignal := make(chan os.Signal, 1)
	signal.Notify(stopSignal, os.Interrupt, syscall.SIGHUP, syscall.SIGQUIT, syscall.SIGTERM)
	sig, ok := <-stopSignal
	if ok {
		log.Notice("stopping with signal", sig)
	}
	return
}

func serveConn(conn net.Conn, authenticator session.Authenticator, server *directory.Server) {
	remote := conn.RemoteAddr()
	log.Info("new connection from", remote)
	s := session.Serve(conn, authenticator, server, log)
	err := s.Wait()
	if err != nil {
		log.Error(fmt.Sprintf("session with %s ended: %s", remote, err))
		return
	}
	log.Info("session with", remote, "closed")
}
