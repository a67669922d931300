package config

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// TLSConfig holds PEM paths for serving RPC over TLS. ClientCA is optional;
// when set, clients must present a certificate signed by it.
type TLSConfig struct {
	Cert     string `json:"cert"`
	Key      string `json:"key"`
	ClientCA string `json:"client_ca,omitempty"`
}

// LoadTLSConfig builds a server *tls.Config from cfg. If cfg is nil or has
// no certificate it returns (nil, nil) and the caller serves plain HTTP.
func LoadTLSConfig(cfg *TLSConfig) (*tls.Config, error) {
	if cfg == nil || (cfg.Cert == "" && cfg.Key == "") {
		return nil, nil
	}

	cert, err := tls.LoadX509KeyPair(cfg.Cert, cfg.Key)
	if err != nil {
		return nil, fmt.Errorf("load rpc cert/key: %w", err)
	}
	out := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}
	if cfg.ClientCA == "" {
		return out, nil
	}

	pool, err := loadPool(cfg.ClientCA)
	if err != nil {
		return nil, fmt.Errorf("client CA: %w", err)
	}
	out.ClientCAs = pool
	out.ClientAuth = tls.RequireAndVerifyClientCert
	return out, nil
}

// LoadClientTLSConfig builds the client side: caPath is the CA the RPC
// server certificate must chain to, and certPath/keyPath, when set, are
// presented to a server that requires client certificates.
func LoadClientTLSConfig(caPath, certPath, keyPath string) (*tls.Config, error) {
	pool, err := loadPool(caPath)
	if err != nil {
		return nil, fmt.Errorf("server CA: %w", err)
	}
	out := &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS13}
	if certPath == "" && keyPath == "" {
		return out, nil
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load client cert/key: %w", err)
	}
	out.Certificates = []tls.Certificate{cert}
	return out, nil
}

func loadPool(path string) (*x509.CertPool, error) {
	caPEM, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates in %s", path)
	}
	return pool, nil
}
