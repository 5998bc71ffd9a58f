// Command rest-service exposes a small administrative HTTP surface over
// the key management library: keypair generation, key re-encryption,
// key loading and key-string inspection.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/rs/cors"

	dcrypt "github.com/dovecot/dcrypt-go"
	// register the key-format codec on the dispatch table
	_ "github.com/dovecot/dcrypt-go/format"
)

const (
	address = "localhost:8084"
)

type keypairRequest struct {
	Kind  string
	Bits  int
	Curve string
}

type keypairResponse struct {
	Public  string
	Private string
	KeyId   string
}

type storeRequest struct {
	Private           string
	Password          string
	DecryptionPrivate string
	NewCipher         string
	NewPassword       string
	WrapPublic        string
}

type storeResponse struct {
	Key   string
	KeyId string
}

type loadRequest struct {
	Data              string
	Password          string
	DecryptionPrivate string
}

type loadResponse struct {
	Kind  string
	KeyId string
}

type inspectResponse struct {
	Format            string
	Version           int
	Kind              string
	EncryptionType    string
	EncryptionKeyHash string
	KeyHash           string
}

func parseKind(name string) (dcrypt.KeyKind, error) {
	switch strings.ToUpper(name) {
	case "RSA":
		return dcrypt.KindRSA, nil
	case "EC":
		return dcrypt.KindEC, nil
	case "X25519":
		return dcrypt.KindX25519, nil
	default:
		return 0, fmt.Errorf("unknown key kind %q", name)
	}
}

func fail(w http.ResponseWriter, msg string) {
	log.Printf("%s", msg)
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte(msg))
}

func writeJson(w http.ResponseWriter, data interface{}) {
	resJson, err := json.Marshal(data)
	if err != nil {
		fail(w, fmt.Sprintf("error encoding response as json: %v", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(resJson)
}

func keyIdOf(priv *dcrypt.PrivateKey) (string, error) {
	pub, err := priv.Public()
	if err != nil {
		return "", err
	}
	id, err := dcrypt.GetBackend().PublicKeyID(pub)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(id), nil
}

// loadFromRequest resolves the optional unlock credentials and loads a
// private key record.
func loadFromRequest(data, password, decryptionPrivate string) (*dcrypt.PrivateKey, error) {
	b := dcrypt.GetBackend()
	var decKey *dcrypt.PrivateKey
	if decryptionPrivate != "" {
		var err error
		decKey, err = b.LoadPrivateKey(decryptionPrivate, "", nil)
		if err != nil {
			return nil, fmt.Errorf("loading decryption key: %v", err)
		}
	}
	return b.LoadPrivateKey(data, password, decKey)
}

func generateKeypair(w http.ResponseWriter, req *http.Request) {
	reqData := &keypairRequest{}
	if err := json.NewDecoder(req.Body).Decode(reqData); err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: error decoding request json: %v", err))
		return
	}

	kind, err := parseKind(reqData.Kind)
	if err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: %v", err))
		return
	}
	bits := reqData.Bits
	if kind == dcrypt.KindRSA && bits == 0 {
		bits = 2048
	}

	b := dcrypt.GetBackend()
	pair, err := b.GenerateKeypair(kind, bits, reqData.Curve)
	if err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: error generating keypair: %v", err))
		return
	}

	pubRecord, err := b.StorePublicKey(pair.Public)
	if err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: error storing public key: %v", err))
		return
	}
	privRecord, err := b.StorePrivateKey(pair.Private, "", "", nil)
	if err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: error storing private key: %v", err))
		return
	}
	keyId, err := keyIdOf(pair.Private)
	if err != nil {
		fail(w, fmt.Sprintf("KEYPAIR: error computing key id: %v", err))
		return
	}

	writeJson(w, &keypairResponse{Public: pubRecord, Private: privRecord, KeyId: keyId})
}

func storeKey(w http.ResponseWriter, req *http.Request) {
	reqData := &storeRequest{}
	if err := json.NewDecoder(req.Body).Decode(reqData); err != nil {
		fail(w, fmt.Sprintf("STORE: error decoding request json: %v", err))
		return
	}

	key, err := loadFromRequest(reqData.Private, reqData.Password, reqData.DecryptionPrivate)
	if err != nil {
		fail(w, fmt.Sprintf("STORE: error loading private key: %v", err))
		return
	}
	defer key.Destroy()

	b := dcrypt.GetBackend()
	var wrapKey *dcrypt.PublicKey
	if reqData.WrapPublic != "" {
		wrapKey, err = b.LoadPublicKey(reqData.WrapPublic)
		if err != nil {
			fail(w, fmt.Sprintf("STORE: error loading wrapping key: %v", err))
			return
		}
	}

	stored, err := b.StorePrivateKey(key, reqData.NewCipher, reqData.NewPassword, wrapKey)
	if err != nil {
		fail(w, fmt.Sprintf("STORE: error storing private key: %v", err))
		return
	}
	keyId, err := keyIdOf(key)
	if err != nil {
		fail(w, fmt.Sprintf("STORE: error computing key id: %v", err))
		return
	}

	writeJson(w, &storeResponse{Key: stored, KeyId: keyId})
}

func loadKey(w http.ResponseWriter, req *http.Request) {
	reqData := &loadRequest{}
	if err := json.NewDecoder(req.Body).Decode(reqData); err != nil {
		fail(w, fmt.Sprintf("LOAD: error decoding request json: %v", err))
		return
	}

	key, err := loadFromRequest(reqData.Data, reqData.Password, reqData.DecryptionPrivate)
	if err != nil {
		fail(w, fmt.Sprintf("LOAD: error loading private key: %v", err))
		return
	}
	defer key.Destroy()

	keyId, err := keyIdOf(key)
	if err != nil {
		fail(w, fmt.Sprintf("LOAD: error computing key id: %v", err))
		return
	}

	writeJson(w, &loadResponse{Kind: key.Kind().String(), KeyId: keyId})
}

func inspectKey(w http.ResponseWriter, req *http.Request) {
	var reqData struct {
		Data string
	}
	if err := json.NewDecoder(req.Body).Decode(&reqData); err != nil {
		fail(w, fmt.Sprintf("INSPECT: error decoding request json: %v", err))
		return
	}

	info, err := dcrypt.GetBackend().KeyStringInfo(reqData.Data)
	if err != nil {
		fail(w, fmt.Sprintf("INSPECT: error inspecting key string: %v", err))
		return
	}

	writeJson(w, &inspectResponse{
		Format:            info.Format.String(),
		Version:           info.Version,
		Kind:              info.Kind.String(),
		EncryptionType:    info.EncryptionType.String(),
		EncryptionKeyHash: info.EncryptionKeyHash,
		KeyHash:           info.KeyHash,
	})
}

func initializeMux(mux *http.ServeMux) error {
	mux.HandleFunc("/keypair", generateKeypair)
	mux.HandleFunc("/key/store", storeKey)
	mux.HandleFunc("/key/load", loadKey)
	mux.HandleFunc("/key/inspect", inspectKey)
	return nil
}

func main() {
	mux := http.NewServeMux()
	initializeMux(mux)

	server := &http.Server{
		Addr:    address,
		Handler: cors.Default().Handler(mux),
	}
	err := server.ListenAndServe()
	if err != nil {
		log.Printf("Error starting server: %v", err)
	}
}
