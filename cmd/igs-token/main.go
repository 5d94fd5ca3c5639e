package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/atldata/igs/pkg/auth"
	kcs "github.com/atldata/igs/pkg/configs/server"
)

// igs-token mints a bearer token for the admin API, signed with the
// authSecret of the server config.
func main() {

	configPath := flag.String("config-path", "", "server config path (source of the secret)")
	secret := flag.String("secret", "", "signing secret (overrides config)")
	subject := flag.String("subject", "admin", "token subject")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	signingSecret := *secret
	if signingSecret == "" {
		if *configPath == "" {
			log.Fatal("either -secret or -config-path is required")
		}
		conf, err := kcs.LoadServerConfig(*configPath)
		if err != nil {
			log.Fatalf("can not read configration: %s", err)
		}
		signingSecret = conf.AuthSecret
	}
	if signingSecret == "" {
		log.Fatal("authSecret is empty; the admin API is disabled on this server")
	}

	token, err := auth.NewIssuer(signingSecret, *ttl).Issue(*subject)
	if err != nil {
		log.Fatalf("can not issue token: %s", err)
	}
	fmt.Println(token)
}
