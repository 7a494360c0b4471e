// cipher-mock serves the cipher-vault API the ledger depends on. It exists
// for local development and integration testing; the -scheme flag selects
// between real BFV ciphertexts and a fast plaintext store.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"log"
	"net/http"

	"github.com/HoganMacAdam/trust-vault-stars/internal/cipher"
	"github.com/HoganMacAdam/trust-vault-stars/internal/domain"
)

type vaultServer struct {
	vault cipher.Vault
}

type encryptRequest struct {
	Value     int64          `json:"value"`
	Recipient domain.Address `json:"recipient"`
}

type constantRequest struct {
	Value int64 `json:"value"`
}

type addRequest struct {
	A domain.Handle `json:"a"`
	B domain.Handle `json:"b"`
}

type grantRequest struct {
	Handle   domain.Handle  `json:"handle"`
	Identity domain.Address `json:"identity"`
}

type decryptRequest struct {
	Handle    domain.Handle  `json:"handle"`
	Requester domain.Address `json:"requester"`
}

func main() {
	var (
		port   = flag.String("port", "9099", "port to listen on")
		scheme = flag.String("scheme", "bfv", "encryption scheme: bfv or plain")
	)
	flag.Parse()

	var vault cipher.Vault
	switch *scheme {
	case "bfv":
		log.Println("generating BFV key pair, this can take a moment")
		vault = cipher.NewEngine()
	case "plain":
		vault = cipher.NewPlain()
	default:
		log.Fatalf("unknown scheme %q", *scheme)
	}

	srv := &vaultServer{vault: vault}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/encrypt", srv.handleEncrypt)
	mux.HandleFunc("/v1/constant", srv.handleConstant)
	mux.HandleFunc("/v1/add", srv.handleAdd)
	mux.HandleFunc("/v1/grant", srv.handleGrant)
	mux.HandleFunc("/v1/decrypt", srv.handleDecrypt)

	addr := ":" + *port
	log.Printf("cipher-mock (%s) listening on %s", *scheme, addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func (s *vaultServer) handleEncrypt(w http.ResponseWriter, r *http.Request) {
	var req encryptRequest
	if !decode(w, r, &req) {
		return
	}
	handle, err := s.vault.Encrypt(r.Context(), req.Value, req.Recipient)
	if err != nil {
		respondVaultError(w, err)
		return
	}
	respondHandle(w, handle)
}

func (s *vaultServer) handleConstant(w http.ResponseWriter, r *http.Request) {
	var req constantRequest
	if !decode(w, r, &req) {
		return
	}
	handle, err := s.vault.EncryptConstant(r.Context(), req.Value)
	if err != nil {
		respondVaultError(w, err)
		return
	}
	respondHandle(w, handle)
}

func (s *vaultServer) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decode(w, r, &req) {
		return
	}
	handle, err := s.vault.Add(r.Context(), req.A, req.B)
	if err != nil {
		respondVaultError(w, err)
		return
	}
	respondHandle(w, handle)
}

func (s *vaultServer) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.vault.Grant(r.Context(), req.Handle, req.Identity); err != nil {
		respondVaultError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *vaultServer) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	var req decryptRequest
	if !decode(w, r, &req) {
		return
	}
	value, err := s.vault.Decrypt(r.Context(), req.Handle, req.Requester)
	if err != nil {
		respondVaultError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"value": value})
}

func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func respondVaultError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cipher.ErrPermissionDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, cipher.ErrUnknownHandle):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.Canceled):
		http.Error(w, err.Error(), http.StatusRequestTimeout)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func respondHandle(w http.ResponseWriter, handle domain.Handle) {
	respondJSON(w, http.StatusOK, map[string]domain.Handle{"handle": handle})
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
