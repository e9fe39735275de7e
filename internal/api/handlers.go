package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

type marketStatus struct {
	IsOpen                 bool      `json:"isOpen"`
	RefreshIntervalSeconds int       `json:"refreshIntervalSeconds"`
	CheckedAt              time.Time `json:"checkedAt"`
}

type description struct {
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

type symbolsBody struct {
	Symbols []string `json:"symbols"`
}

// marketDataRequest is the action-dispatch body: one endpoint for the four
// common lookups.
type marketDataRequest struct {
	Action  string   `json:"action"`
	Symbol  string   `json:"symbol"`
	Symbols []string `json:"symbols"`
	Query   string   `json:"query"`
}

var errNoSymbols = errors.New("symbols cannot be empty")

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Error: msg})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "providers": s.gw.ProviderNames()})
}

func (s *Server) getQuote(c *gin.Context) {
	sym := strings.TrimSpace(c.Param("symbol"))
	if sym == "" {
		badRequest(c, "missing symbol")
		return
	}
	ok(c, s.gw.GetQuote(c.Request.Context(), sym))
}

func (s *Server) getQuotes(c *gin.Context) {
	raw := c.Query("symbols")
	if strings.TrimSpace(raw) == "" {
		badRequest(c, "missing symbols query param")
		return
	}
	s.writeQuotes(c, splitCSV(raw))
}

func (s *Server) postQuotes(c *gin.Context) {
	var b symbolsBody
	if err := c.ShouldBindJSON(&b); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	s.writeQuotes(c, b.Symbols)
}

func (s *Server) writeQuotes(c *gin.Context, symbols []string) {
	if err := s.checkSymbols(symbols); err != nil {
		badRequest(c, err.Error())
		return
	}
	ok(c, s.gw.GetMultipleQuotes(c.Request.Context(), symbols))
}

func (s *Server) checkSymbols(symbols []string) error {
	if len(symbols) == 0 {
		return errNoSymbols
	}
	if len(symbols) > s.opts.MaxSymbols {
		return errors.New("too many symbols")
	}
	return nil
}

func (s *Server) search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		q = c.Query("query")
	}
	ok(c, s.gw.SearchStocks(c.Request.Context(), q))
}

func (s *Server) marketStatus(c *gin.Context) {
	ok(c, marketStatus{
		IsOpen:                 s.gw.IsMarketOpen(),
		RefreshIntervalSeconds: int(s.gw.RefreshInterval() / time.Second),
		CheckedAt:              s.nowFn().UTC(),
	})
}

func (s *Server) allStocks(c *gin.Context) {
	ok(c, s.gw.AllStocks())
}

func (s *Server) description(c *gin.Context) {
	sym := strings.ToUpper(strings.TrimSpace(c.Param("symbol")))
	ok(c, description{Symbol: sym, Description: s.gw.GetStockDescription(sym)})
}

func (s *Server) trending(c *gin.Context) {
	ok(c, s.gw.TrendingStocks(c.Request.Context()))
}

func (s *Server) sector(c *gin.Context) {
	ok(c, s.gw.StocksBySector(c.Request.Context(), c.Param("sector")))
}

func (s *Server) marketData(c *gin.Context) {
	var req marketDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	ctx := c.Request.Context()

	switch req.Action {
	case "quote":
		if strings.TrimSpace(req.Symbol) == "" {
			badRequest(c, "missing symbol")
			return
		}
		ok(c, s.gw.GetQuote(ctx, req.Symbol))
	case "multipleQuotes":
		if err := s.checkSymbols(req.Symbols); err != nil {
			badRequest(c, err.Error())
			return
		}
		ok(c, s.gw.GetMultipleQuotes(ctx, req.Symbols))
	case "search":
		ok(c, s.gw.SearchStocks(ctx, req.Query))
	case "trending":
		ok(c, s.gw.TrendingStocks(ctx))
	default:
		badRequest(c, "invalid action")
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
