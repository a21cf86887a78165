package messaging

import (
	"context"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
)

// KafkaDialer connects to Kafka clusters given as kafka://host:port[,host:port].
// Exchanges map to topics and routing keys to message keys.
type KafkaDialer struct {
	HeartbeatInterval time.Duration
	Partitions        int
	ReplicationFactor int
}

func (d KafkaDialer) Dial(ctx context.Context, rawURL string) (Session, error) {
	brokers, err := parseKafkaBrokers(rawURL)
	if err != nil {
		return nil, err
	}

	var conn *kafka.Conn
	for _, broker := range brokers {
		conn, err = kafka.DialContext(ctx, "tcp", broker)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, errors.Wrap(err, "kafka dial")
	}

	interval := d.HeartbeatInterval
	if interval == 0 {
		interval = 10 * time.Second
	}
	s := &kafkaSession{
		conn:              conn,
		brokers:           brokers,
		partitions:        max(d.Partitions, 1),
		replicationFactor: max(d.ReplicationFactor, 1),
		closed:            make(chan error, 1),
		stop:              make(chan struct{}),
	}
	go s.heartbeat(interval)
	return s, nil
}

func parseKafkaBrokers(rawURL string) ([]string, error) {
	rest, ok := strings.CutPrefix(rawURL, "kafka://")
	if !ok {
		return nil, errors.Errorf("kafka url must start with kafka://")
	}
	rest, _, _ = strings.Cut(rest, "/")
	var brokers []string
	for _, b := range strings.Split(rest, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	if len(brokers) == 0 {
		return nil, errors.New("kafka url has no brokers")
	}
	return brokers, nil
}

type kafkaSession struct {
	conn              *kafka.Conn
	brokers           []string
	partitions        int
	replicationFactor int

	closed    chan error
	stop      chan struct{}
	closeOnce sync.Once
}

// heartbeat polls cluster metadata and reports the first failure as closure.
func (s *kafkaSession) heartbeat(interval time.Duration) {
	defer close(s.closed)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			_ = s.conn.SetDeadline(time.Now().Add(interval))
			if _, err := s.conn.Brokers(); err != nil {
				select {
				case <-s.stop:
				default:
					s.closed <- errors.Wrap(err, "kafka heartbeat")
				}
				return
			}
		}
	}
}

func (s *kafkaSession) Channel() (Channel, error) {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(s.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &kafkaChannel{session: s, writer: writer}, nil
}

func (s *kafkaSession) NotifyClose() <-chan error { return s.closed }

func (s *kafkaSession) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stop)
		err = s.conn.Close()
	})
	return err
}

func (s *kafkaSession) createTopic(name string) error {
	controller, err := s.conn.Controller()
	if err != nil {
		return errors.Wrap(err, "kafka controller")
	}
	cc, err := kafka.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return errors.Wrap(err, "dial kafka controller")
	}
	defer cc.Close()

	err = cc.CreateTopics(kafka.TopicConfig{
		Topic:             name,
		NumPartitions:     s.partitions,
		ReplicationFactor: s.replicationFactor,
	})
	if err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return errors.Wrapf(err, "create topic %s", name)
	}
	return nil
}

type kafkaChannel struct {
	session *kafkaSession
	writer  *kafka.Writer
}

// DeclareExchange creates the topic if missing. Kafka has no exchange kinds.
func (c *kafkaChannel) DeclareExchange(name, _ string) error {
	return c.session.createTopic(name)
}

func (c *kafkaChannel) Publish(ctx context.Context, exchange, routingKey string, msg Message) error {
	err := c.writer.WriteMessages(ctx, kafka.Message{
		Topic: exchange,
		Key:   []byte(routingKey),
		Value: msg.Body,
		Time:  msg.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(msg.ContentType)},
			{Key: "routing-key", Value: []byte(routingKey)},
		},
	})
	return errors.Wrapf(err, "publish %s", routingKey)
}

func (c *kafkaChannel) Close() error {
	return c.writer.Close()
}
