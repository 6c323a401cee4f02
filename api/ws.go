package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"cryptosimchain_go/utils"
)

// upgrader upgrades HTTP connections to WebSocket connections.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Simulation backend, any origin may subscribe
	},
}

// Stream intervals and deadlines.
const (
	priceStreamInterval = 100 * time.Millisecond
	txStreamInterval    = 200 * time.Millisecond
	stateReadDeadline   = 60 * time.Second
	streamWriteTimeout  = 5 * time.Second
)

/**
 * CryptoStateStreamHandler serves the request/response state stream: the
 * client sends any text frame and receives a full state snapshot back. A
 * read deadline bounds idle connections; silence past the deadline closes
 * the stream.
 */
func (s *Server) CryptoStateStreamHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	utils.LogDebug("State stream opened by %s for crypto %s", r.RemoteAddr, instance.Crypto.ID)

	for {
		conn.SetReadDeadline(time.Now().Add(stateReadDeadline))
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.LogDebug("State stream read error from %s: %v", r.RemoteAddr, err)
			}
			return
		}

		payload := map[string]any{
			"state": cryptoState(instance),
		}
		if active := s.Manager.ActiveForCrypto(instance.Crypto.ID); active != nil {
			payload["simulation"] = active.Snapshot()
		}

		conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(payload); err != nil {
			utils.LogDebug("State stream write error to %s: %v", r.RemoteAddr, err)
			return
		}
	}
}

// PriceStreamHandler pushes price updates on a fixed interval until the
// client disconnects.
func (s *Server) PriceStreamHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	utils.LogDebug("Price stream opened by %s for crypto %s", r.RemoteAddr, instance.Crypto.ID)

	done := watchDisconnect(conn)
	ticker := time.NewTicker(priceStreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			payload := map[string]any{
				"crypto_id":        instance.Crypto.ID,
				"price":            instance.PriceSim.CurrentPrice(),
				"price_change_24h": instance.PriceSim.PriceChange24h(),
				"volatility_index": instance.PriceSim.VolatilityIndex(),
				"timestamp":        float64(time.Now().UnixNano()) / 1e9,
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(payload); err != nil {
				utils.LogDebug("Price stream write error to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

// TransactionStreamHandler pushes the pending queue and chain counters on a
// fixed interval until the client disconnects.
func (s *Server) TransactionStreamHandler(w http.ResponseWriter, r *http.Request) {
	instance, err := s.Registry.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		utils.LogError("WebSocket upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	defer conn.Close()
	utils.LogDebug("Transaction stream opened by %s for crypto %s", r.RemoteAddr, instance.Crypto.ID)

	done := watchDisconnect(conn)
	ticker := time.NewTicker(txStreamInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			payload := map[string]any{
				"crypto_id":          instance.Crypto.ID,
				"pending":            instance.Ledger.PendingTransactions(),
				"blocks":             instance.Ledger.GetStats().Blocks,
				"total_transactions": instance.Ledger.TotalTransactions(),
			}
			conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(payload); err != nil {
				utils.LogDebug("Transaction stream write error to %s: %v", r.RemoteAddr, err)
				return
			}
		}
	}
}

// watchDisconnect drains reads on its own goroutine and closes the returned
// channel when the peer goes away. Push streams never expect client frames,
// but the read pump is what surfaces the disconnect.
func watchDisconnect(conn *websocket.Conn) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return done
}
