package service

import (
	"strings"

	"github.com/spec-kit/support-assistant/internal/config"
)

// Link is one self-service suggestion returned alongside an answer.
type Link struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// LinkCatalog resolves the self-service links suggested for an intent
// category. Unknown categories get the generic help set.
type LinkCatalog struct {
	byCategory map[string][]Link
	fallback   []Link
}

// NewLinkCatalog builds the catalog from the configured base URLs.
func NewLinkCatalog(cfg config.LinksConfig) *LinkCatalog {
	help := strings.TrimRight(cfg.HelpCenterURL, "/")
	account := strings.TrimRight(cfg.AccountURL, "/")

	return &LinkCatalog{
		byCategory: map[string][]Link{
			"facturation": {
				{Label: "Comprendre ma facture", URL: help + "/facturation"},
				{Label: "Mon espace abonné", URL: account},
			},
			"technique": {
				{Label: "Diagnostiquer ma connexion", URL: help + "/technique"},
				{Label: "État du réseau", URL: help + "/reseau"},
			},
			"forfait": {
				{Label: "Gérer mon forfait", URL: account + "/forfait"},
				{Label: "Options et services", URL: help + "/forfait"},
			},
			"resiliation": {
				{Label: "Résilier mon offre", URL: account + "/resiliation"},
				{Label: "Vos droits et délais", URL: help + "/resiliation"},
			},
		},
		fallback: []Link{
			{Label: "Centre d'aide", URL: cfg.HelpCenterURL},
			{Label: "Nous contacter", URL: cfg.ContactURL},
		},
	}
}

// For returns the links for category.
func (c *LinkCatalog) For(category string) []Link {
	if links, ok := c.byCategory[strings.ToLower(strings.TrimSpace(category))]; ok {
		return links
	}
	return c.fallback
}
