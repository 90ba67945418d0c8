package env

import (
	"os"

	"github.com/joho/godotenv"
)

type convertible interface {
	~[]byte | ~string
}

var (
	HS256_SECRET    []byte
	NSQD_TCP_ADDR   string
	NSQLOOKUPD_ADDR string
	DB_CONN         string
	REDIS_CONN      string
	DOCS_UPLOAD_URL string
	APP_PORT        string
	SERVER_ID       string
)

func initEnv[T convertible](dst *T, key string) {
	v := os.Getenv(key)
	if v == "" {
		os.Exit(1)
	}
	*dst = T(os.Getenv(key))
}

func init() {
	// A .env file is a convenience for local runs, deployments set real vars.
	godotenv.Load()

	initEnv(&HS256_SECRET, "HS256_SECRET")
	initEnv(&NSQD_TCP_ADDR, "NSQD_TCP_ADDR")
	initEnv(&NSQLOOKUPD_ADDR, "NSQLOOKUPD_ADDR")
	initEnv(&DB_CONN, "DB_CONN")
	initEnv(&REDIS_CONN, "REDIS_CONN")
	initEnv(&DOCS_UPLOAD_URL, "DOCS_UPLOAD_URL")
	initEnv(&APP_PORT, "APP_PORT")
	initEnv(&SERVER_ID, "SERVER_ID")
}
