package client

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/spf13/pflag"
)

const (
	flagPrefix  = "jrtc"
	defaultHost = "localhost"
	DefaultPort = 3001
)

// Options locate the REST server; bound to --jrtc-ip / --jrtc-port.
type Options struct {
	Host string
	Port uint16
}

func AddToFlags(flags *pflag.FlagSet, o *Options) {
	flags.StringVar(&o.Host, flagPrefix+"-ip", defaultHost, "IP address of the REST control interface")
	flags.Uint16Var(&o.Port, flagPrefix+"-port", DefaultPort, "port of the REST control interface")
}

// BaseURL validates the options and returns "http://host:port".
func (o *Options) BaseURL() (string, error) {
	if o.Host == "" {
		return "", fmt.Errorf("--%s-ip is required", flagPrefix)
	}
	u, err := url.ParseRequestURI("http://" + net.JoinHostPort(o.Host, strconv.Itoa(int(o.Port))))
	if err != nil {
		return "", err
	}
	return u.Scheme + "://" + u.Host, nil
}
