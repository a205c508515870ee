package models

import "github.com/golang-jwt/jwt/v5"

// TokenTypeDeploy is the only token type accepted on the deploy path
const TokenTypeDeploy = "deploy"

// DeployClaims are the verified claims of a deploy token
type DeployClaims struct {
	Type   string   `json:"type"`
	AppID  string   `json:"appid"`
	Source string   `json:"src"`
	Scopes []string `json:"pns"`
	jwt.RegisteredClaims
}

// AuthorClaims are the verified claims of a local author's bearer token
type AuthorClaims struct {
	UID string `json:"uid"`
	jwt.RegisteredClaims
}
