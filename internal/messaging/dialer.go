package messaging

import (
	"net/url"

	"github.com/pkg/errors"
)

// DialerFor picks the transport from the URL scheme.
func DialerFor(rawURL string) (Dialer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse broker url")
	}
	switch u.Scheme {
	case "amqp", "amqps":
		return AMQPDialer{}, nil
	case "kafka":
		return KafkaDialer{}, nil
	default:
		return nil, errors.Errorf("unsupported broker scheme %q", u.Scheme)
	}
}
