package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/mverac/saleswatch/internal/state"
)

// Notifier receives edge-triggered events. Implementations decide the
// physical alert; the poller never touches hardware.
type Notifier interface {
	NewSale()
	StockZero()
	ProductInvalid()
}

// Sale fetch wire types.
type saleList struct {
	// A pointer distinguishes a missing results field (parse failure)
	// from an empty collection (no sales yet, which is a success).
	Results *[]saleEntry `json:"results"`
}

type saleEntry struct {
	URL      string     `json:"url"`
	Detalles []lineItem `json:"detalles"`
}

type lineItem struct {
	Producto string `json:"producto"`
	Cantidad int    `json:"cantidad"`
}

// Poller fetches the most recent sale each cycle, cross-references its line
// item through the Resolver, reconciles the result into shared state, and
// emits edge-triggered events.
//
// PollOnce is not reentrant. The run loop invokes it serially; the Poller
// carries no locking of its own.
type Poller struct {
	client   *http.Client
	tokens   *TokenManager
	resolver *Resolver
	tracker  *state.Tracker
	notifier Notifier
	online   func() bool // nil means always reachable

	salesURL string

	// lastSaleID always reflects the most recently observed sale id,
	// decoupled from whether product resolution succeeded. -1 is the
	// sentinel below any valid id.
	lastSaleID         int64
	stockZeroSent      bool
	productInvalidSent bool
}

// NewPoller wires a Poller. online reports network reachability and may be
// nil.
func NewPoller(client *http.Client, tokens *TokenManager, resolver *Resolver, tracker *state.Tracker, notifier Notifier, salesURL string, online func() bool) *Poller {
	return &Poller{
		client:     client,
		tokens:     tokens,
		resolver:   resolver,
		tracker:    tracker,
		notifier:   notifier,
		online:     online,
		salesURL:   salesURL,
		lastSaleID: -1,
	}
}

// PollOnce runs one poll cycle. Every failure is recorded as the last-error
// string in shared state; every success path clears it.
func (p *Poller) PollOnce(ctx context.Context) error {
	if p.online != nil && !p.online() {
		p.tracker.RecordError("network down")
		return ErrNetworkUnavailable
	}

	if !p.tokens.Valid() {
		if err := p.tokens.Acquire(ctx); err != nil {
			p.tracker.RecordError(err.Error())
			return errors.Mark(err, ErrAuthFailed)
		}
	}

	body, err := p.fetchSales(ctx)
	if err != nil {
		p.tracker.RecordError(err.Error())
		return err
	}

	if err := p.reconcile(ctx, body); err != nil {
		p.tracker.RecordError(err.Error())
		return err
	}
	return nil
}

// fetchSales issues the authenticated latest-sale request, retrying at most
// once after a forced token refresh on 401. The loop bound is the retry
// bound; there is no backoff — the next scheduled cycle starts fresh.
func (p *Poller) fetchSales(ctx context.Context) ([]byte, error) {
	for attempt := 0; attempt <= 1; attempt++ {
		code, body, err := p.get(ctx, p.salesURL)
		if err != nil {
			return nil, err
		}

		if code == http.StatusUnauthorized && attempt == 0 {
			if err := p.tokens.Acquire(ctx); err != nil {
				return nil, errors.Mark(err, ErrAuthFailed)
			}
			continue
		}
		if code != http.StatusOK {
			return nil, &StatusError{Op: "sales", Code: code}
		}
		return body, nil
	}
	// Second 401 after a successful refresh.
	return nil, &StatusError{Op: "sales", Code: http.StatusUnauthorized}
}

func (p *Poller) get(ctx context.Context, url string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, nil, errors.Mark(errors.Wrap(err, "build sales request"), ErrTransport)
	}
	req.Header.Set("Authorization", p.tokens.AuthHeader())
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, nil, errors.Mark(errors.Wrap(err, "sales request"), ErrTransport)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, errors.Mark(errors.Wrap(err, "read sales response"), ErrTransport)
	}
	return resp.StatusCode, body, nil
}

// reconcile parses the sale payload, detects novelty and stock/product
// edges, and publishes the reconciled record to shared state.
func (p *Poller) reconcile(ctx context.Context, body []byte) error {
	var list saleList
	if err := json.Unmarshal(body, &list); err != nil {
		return errors.Mark(errors.Wrap(err, "decode sales"), ErrParse)
	}
	if list.Results == nil {
		return errors.Mark(errors.New("sales response missing results"), ErrParse)
	}

	results := *list.Results
	if len(results) == 0 {
		// No sales yet. State stays as-is apart from the error reset.
		p.tracker.ClearError()
		return nil
	}

	entry := results[0]
	saleID, err := ResourceID(entry.URL)
	if err != nil {
		return errors.Mark(err, ErrInvalidSaleID)
	}

	if saleID != p.lastSaleID {
		p.notifier.NewSale()
	}
	// Remembered unconditionally: a product failure later in this cycle
	// must not re-fire NewSale for the same sale next cycle.
	p.lastSaleID = saleID

	st := state.SaleState{
		SaleID:  saleID,
		RawJSON: string(body),
		OK:      true,
	}

	if len(entry.Detalles) > 0 {
		det := entry.Detalles[0]
		st.ProductSold = det.Cantidad

		snap, err := p.resolver.Resolve(ctx, det.Producto)
		if err == nil {
			st.ProductName = snap.Name
			st.ProductCode = strconv.FormatInt(snap.Code, 10)
			st.ProductID = snap.ID
			st.ProductStock = snap.Stock

			if snap.Stock <= 0 {
				if !p.stockZeroSent {
					p.notifier.StockZero()
					p.stockZeroSent = true
				}
			} else {
				p.stockZeroSent = false
			}
			// A resolved product supersedes any prior
			// invalid-product condition.
			p.productInvalidSent = false
		} else {
			st.ProductCode = "unknown"
			st.ProductID = -1
			if id, idErr := ResourceID(det.Producto); idErr == nil {
				st.ProductID = id
			}

			if !p.productInvalidSent {
				p.notifier.ProductInvalid()
				p.productInvalidSent = true
			}
		}
	} else {
		// No line item: neutral product fields. Not an onset of either
		// condition, so both edge flags stay untouched.
		st.ProductID = -1
	}

	p.tracker.SetSale(st)
	return nil
}

// LastSaleID returns the most recently observed sale id (-1 before the
// first observation).
func (p *Poller) LastSaleID() int64 {
	return p.lastSaleID
}
