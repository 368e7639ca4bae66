package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremqtt "github.com/kilianp07/hydrodispatch/core/mqtt"
	"github.com/kilianp07/hydrodispatch/infra/logger"
)

// Default topics used when the configuration leaves them empty.
const (
	DefaultScheduleTopic = "hydro/dispatch/schedule"
	DefaultAckTopic      = "hydro/dispatch/ack"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Enabled       bool            `json:"enabled" yaml:"enabled"`
	Broker        string          `json:"broker" yaml:"broker"`
	ClientID      string          `json:"client_id" yaml:"client_id"`
	Username      string          `json:"username" yaml:"username"`
	Password      string          `json:"password" yaml:"password"`
	ScheduleTopic string          `json:"schedule_topic" yaml:"schedule_topic"`
	AckTopic      string          `json:"ack_topic" yaml:"ack_topic"`
	UseTLS        bool            `json:"use_tls" yaml:"use_tls"`
	ClientCert    string          `json:"client_cert" yaml:"client_cert"`
	ClientKey     string          `json:"client_key" yaml:"client_key"`
	CABundle      string          `json:"ca_bundle" yaml:"ca_bundle"`
	AuthMethod    string          `json:"auth_method" yaml:"auth_method"`
	QoS           map[string]byte `json:"qos" yaml:"qos"`
	LWTTopic      string          `json:"lwt_topic" yaml:"lwt_topic"`
	LWTPayload    string          `json:"lwt_payload" yaml:"lwt_payload"`
	LWTQoS        byte            `json:"lwt_qos" yaml:"lwt_qos"`
	LWTRetain     bool            `json:"lwt_retain" yaml:"lwt_retain"`
	MaxRetries    int             `json:"max_retries" yaml:"max_retries"`
	BackoffMS     int             `json:"backoff_ms" yaml:"backoff_ms"`
	// AckTimeoutMS bounds the wait for the controller acknowledgment; zero
	// disables waiting.
	AckTimeoutMS int         `json:"ack_timeout_ms" yaml:"ack_timeout_ms"`
	TLSConfig    *tls.Config `json:"-" yaml:"-"`
}

// SetDefaults fills in topics and client id.
func (c *Config) SetDefaults() {
	if c.ScheduleTopic == "" {
		c.ScheduleTopic = DefaultScheduleTopic
	}
	if c.AckTopic == "" {
		c.AckTopic = DefaultAckTopic
	}
	if c.ClientID == "" {
		c.ClientID = "hydrodispatch"
	}
}

// Validate checks mandatory fields when publishing is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements the core Publisher interface using Eclipse Paho.
type PahoClient struct {
	cli           pahoClient
	scheduleTopic string
	ackTopic      string
	qos           map[string]byte

	mu         sync.Mutex
	ackChans   map[string]chan struct{}
	logger     logger.Logger
	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker and subscribes to the ACK topic.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		scheduleTopic: cfg.ScheduleTopic,
		ackTopic:      cfg.AckTopic,
		ackChans:      make(map[string]chan struct{}),
		logger:        log,
		qos:           cfg.QoS,
		maxRetries:    cfg.MaxRetries,
		backoff:       time.Duration(cfg.BackoffMS) * time.Millisecond,
	}
	if pc.maxRetries <= 0 {
		pc.maxRetries = 3
	}
	if pc.backoff <= 0 {
		pc.backoff = 100 * time.Millisecond
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		if token := c.Subscribe(pc.ackTopic, pc.qosFor("ack"), pc.onAck); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe error: %v", token.Error())
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
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
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

func (p *PahoClient) qosFor(kind string) byte {
	if q, ok := p.qos[kind]; ok {
		return q
	}
	return 0
}

func (p *PahoClient) onAck(_ paho.Client, msg paho.Message) {
	var m struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		p.logger.Errorf("failed to decode ack: %v", err)
		return
	}
	p.mu.Lock()
	ch, ok := p.ackChans[m.MessageID]
	if ok {
		select {
		case ch <- struct{}{}:
		default:
		}
		p.logger.Infof("received ack %s", m.MessageID)
	}
	p.mu.Unlock()
}

// PublishSchedule sends the schedule to the configured topic, retrying with
// exponential backoff, and returns the message identifier used for
// acknowledgment tracking.
func (p *PahoClient) PublishSchedule(ctx context.Context, msg coremqtt.ScheduleMessage) (string, error) {
	if msg.MessageID == "" {
		msg.MessageID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", err
	}

	// registered before publishing so that a fast ack is not lost
	p.mu.Lock()
	p.ackChans[msg.MessageID] = make(chan struct{}, 1)
	p.mu.Unlock()

	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.scheduleTopic, p.qosFor("schedule"), false, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.logger.Infof("published schedule %s (%d hours) to %s", msg.MessageID, len(msg.Power), p.scheduleTopic)
			return msg.MessageID, nil
		}
		p.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		select {
		case <-ctx.Done():
			p.forget(msg.MessageID)
			return "", ctx.Err()
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	p.forget(msg.MessageID)
	return "", publishErr
}

func (p *PahoClient) forget(id string) {
	p.mu.Lock()
	delete(p.ackChans, id)
	p.mu.Unlock()
}

// WaitForAck blocks until an ACK for the given message ID is received or timeout.
func (p *PahoClient) WaitForAck(messageID string, timeout time.Duration) (bool, error) {
	p.mu.Lock()
	ch := p.ackChans[messageID]
	p.mu.Unlock()
	if ch == nil {
		return false, coremqtt.ErrUnknownMessage
	}
	defer p.forget(messageID)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true, nil
	case <-timer.C:
		return false, fmt.Errorf("%w", coremqtt.ErrAckTimeout)
	}
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
