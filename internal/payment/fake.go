package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

const fakeTolerance = 5 * time.Minute

// FakeGateway is a deterministic in-process gateway. Intent ids are sequential and
// webhook payloads are signed with HMAC-SHA256 in the same header format Stripe uses.
type FakeGateway struct {
	secret []byte
	now    func() time.Time

	mu      sync.Mutex
	seq     int
	failErr error
	intents map[string]IntentRequest
}

func NewFakeGateway(secret string) *FakeGateway {
	if secret == "" {
		secret = "whsec_fake"
	}
	return &FakeGateway{
		secret:  []byte(secret),
		now:     time.Now,
		intents: make(map[string]IntentRequest),
	}
}

// FailWith makes subsequent CreateIntent calls return err. A nil err restores success.
func (g *FakeGateway) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failErr = err
}

func (g *FakeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failErr != nil {
		return nil, g.failErr
	}
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}

	g.seq++
	id := fmt.Sprintf("pi_fake_%06d", g.seq)
	g.intents[id] = req
	return &Intent{ID: id, ClientSecret: id + "_secret_fake"}, nil
}

// Intent returns the request recorded for a created intent.
func (g *FakeGateway) Intent(id string) (IntentRequest, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	req, ok := g.intents[id]
	return req, ok
}

func (g *FakeGateway) VerifySignature(payload []byte, header string) (*Event, error) {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return nil, err
	}
	if d := g.now().Sub(ts); d > fakeTolerance || d < -fakeTolerance {
		return nil, fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}
	if !hmac.Equal(sig, g.mac(payload, ts)) {
		return nil, fmt.Errorf("%w: signature mismatch", ErrInvalidSignature)
	}

	var body fakeEventBody
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &Event{
		ID:             body.ID,
		Type:           EventType(body.Type),
		PaymentID:      body.Data.Object.ID,
		FailureMessage: body.Data.Object.LastPaymentError.Message,
	}, nil
}

// Sign returns the signature header value for payload at time ts.
func (g *FakeGateway) Sign(payload []byte, ts time.Time) string {
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(g.mac(payload, ts)))
}

// EventPayload renders a webhook body in the gateway's wire format.
func EventPayload(eventID string, typ EventType, paymentID string) []byte {
	var body fakeEventBody
	body.ID = eventID
	body.Type = string(typ)
	body.Data.Object.ID = paymentID
	body.Data.Object.Object = "payment_intent"
	data, _ := json.Marshal(body)
	return data
}

func (g *FakeGateway) mac(payload []byte, ts time.Time) []byte {
	m := hmac.New(sha256.New, g.secret)
	m.Write([]byte(strconv.FormatInt(ts.Unix(), 10)))
	m.Write([]byte("."))
	m.Write(payload)
	return m.Sum(nil)
}

type fakeEventBody struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID               string `json:"id"`
			Object           string `json:"object"`
			LastPaymentError struct {
				Message string `json:"message,omitempty"`
			} `json:"last_payment_error"`
		} `json:"object"`
	} `json:"data"`
}

func parseSignatureHeader(header string) (time.Time, []byte, error) {
	var (
		ts  time.Time
		sig []byte
	)
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			unix, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ts, nil, fmt.Errorf("%w: bad timestamp", ErrInvalidSignature)
			}
			ts = time.Unix(unix, 0)
		case "v1":
			decoded, err := hex.DecodeString(v)
			if err != nil {
				return ts, nil, fmt.Errorf("%w: bad signature encoding", ErrInvalidSignature)
			}
			sig = decoded
		}
	}
	if ts.IsZero() || sig == nil {
		return ts, nil, fmt.Errorf("%w: missing timestamp or signature", ErrInvalidSignature)
	}
	return ts, sig, nil
}
