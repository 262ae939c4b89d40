package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kilianp07/plantsim/core/cost"
	coremetrics "github.com/kilianp07/plantsim/core/metrics"
	"github.com/kilianp07/plantsim/core/model"
	"github.com/kilianp07/plantsim/infra/logger"
)

// ErrNotConnected is returned when publishing without a broker connection.
var ErrNotConnected = errors.New("mqtt: not connected")

// Config defines the connection parameters of the telemetry publisher.
type Config struct {
	Enabled     bool        `json:"enabled"`
	Broker      string      `json:"broker"`
	ClientID    string      `json:"client_id"`
	Username    string      `json:"username"`
	Password    string      `json:"password"`
	TopicPrefix string      `json:"topic_prefix"`
	QoS         byte        `json:"qos"`
	UseTLS      bool        `json:"use_tls"`
	ClientCert  string      `json:"client_cert"`
	ClientKey   string      `json:"client_key"`
	CABundle    string      `json:"ca_bundle"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "plantsim"
	}
	if c.ClientID == "" {
		c.ClientID = "plantsim-" + uuid.NewString()[:8]
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate reports configuration errors of an enabled publisher.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("telemetry.broker is required when telemetry is enabled")
	}
	if c.QoS > 2 {
		return fmt.Errorf("telemetry.qos must be 0, 1 or 2, got %d", c.QoS)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher streams step events to an MQTT broker. Steps go to
// <prefix>/<run_id>/step, run summaries to <prefix>/<run_id>/summary and
// the retained online/offline status to <prefix>/status.
type Publisher struct {
	cli     pahoClient
	prefix  string
	qos     byte
	retries int
	backoff time.Duration
	logger  logger.Logger
}

// NewPublisher connects to the broker described by cfg.
func NewPublisher(cfg Config) (*Publisher, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt_telemetry")
	p := &Publisher{
		prefix:  strings.TrimSuffix(cfg.TopicPrefix, "/"),
		qos:     cfg.QoS,
		retries: cfg.MaxRetries,
		backoff: time.Duration(cfg.BackoffMS) * time.Millisecond,
		logger:  log,
	}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if t := c.Publish(p.statusTopic(), 1, true, "online"); t.Wait() && t.Error() != nil {
			log.Errorf("status publish error: %v", t.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	p.cli = c
	return p, nil
}

// NewClientOptions builds mqtt client options from Config. The last will
// marks the publisher offline on its status topic.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetWill(statusTopic(cfg.TopicPrefix), "offline", 1, true)
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func statusTopic(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + "/status"
}

func (p *Publisher) statusTopic() string { return statusTopic(p.prefix) }

// StepTopic returns the topic steps of run are published to.
func (p *Publisher) StepTopic(runID string) string {
	return fmt.Sprintf("%s/%s/step", p.prefix, runID)
}

// SummaryTopic returns the topic the summary of run is published to.
func (p *Publisher) SummaryTopic(runID string) string {
	return fmt.Sprintf("%s/%s/summary", p.prefix, runID)
}

// Publish sends payload, retrying with exponential backoff. It gives up
// early when ctx ends.
func (p *Publisher) Publish(ctx context.Context, topic string, retained bool, payload []byte) error {
	if p.cli == nil || !p.cli.IsConnected() {
		return ErrNotConnected
	}
	var err error
	for attempt := 0; attempt <= p.retries; attempt++ {
		token := p.cli.Publish(topic, p.qos, retained, payload)
		token.Wait()
		if err = token.Error(); err == nil {
			return nil
		}
		p.logger.Errorf("publish to %s attempt %d failed: %v", topic, attempt+1, err)
		if attempt == p.retries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("publish %s: %w", topic, err)
}

// RecordStep publishes the step as JSON. It lets the publisher observe a
// run through the step collector.
func (p *Publisher) RecordStep(ev model.StepEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.Publish(context.Background(), p.StepTopic(ev.RunID), false, payload)
}

// RecordRun publishes the retained run summary.
func (p *Publisher) RecordRun(ev coremetrics.RunEvent) error {
	payload, err := json.Marshal(struct {
		RunID    string      `json:"run_id"`
		Steps    int         `json:"steps"`
		Totals   cost.Totals `json:"totals"`
		Started  time.Time   `json:"started"`
		Finished time.Time   `json:"finished"`
		Err      string      `json:"error,omitempty"`
	}{ev.RunID, ev.Steps, ev.Totals, ev.Started, ev.Finished, ev.Err})
	if err != nil {
		return err
	}
	return p.Publish(context.Background(), p.SummaryTopic(ev.RunID), true, payload)
}

// Disconnect marks the publisher offline and closes the connection.
func (p *Publisher) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Publish(p.statusTopic(), 1, true, "offline").WaitTimeout(time.Second)
		p.cli.Disconnect(250)
	}
}
