// Package i18n holds the fr/en message catalog used by pages and JSON errors.
package i18n

import (
	"context"
	"strings"
)

// DefaultLang is used when no supported language is requested.
const DefaultLang = "fr"

var messages = map[string]map[string]string{
	"fr": {
		"required":            "Requis",
		"email":               "Adresse e-mail invalide",
		"url":                 "URL invalide",
		"hexcolor":            "Couleur hexadécimale invalide",
		"max":                 "Trop long",
		"gte":                 "Valeur trop petite",
		"oneof":               "Valeur non autorisée",
		"too_short":           "Trop court",
		"must_be_positive":    "Doit être positif",
		"out_of_range":        "Hors limites",
		"invalid":             "Invalide",
		"unauthenticated":     "Authentification requise",
		"profile_missing":     "Profil utilisateur introuvable",
		"deactivated":         "Ce compte est désactivé",
		"forbidden_not_admin": "Réservé aux administrateurs",
		"invalid_credentials": "E-mail ou mot de passe incorrect",
		"too_many_requests":   "Trop de tentatives, réessayez plus tard",
		"not_found":           "Ressource introuvable",
		"conflict":            "Conflit avec une ressource existante",
		"validation_failed":   "Données invalides",
		"invalid_json":        "Corps JSON invalide",
		"invalid_id":          "Identifiant invalide",
		"internal_error":      "Erreur interne",
		"cannot_modify_self":  "Vous ne pouvez pas retirer vos propres droits",
		"last_administrator":  "Au moins un administrateur actif est requis",
		"email_taken":         "Cette adresse e-mail est déjà utilisée",
		"login_title":         "Connexion",
		"login_submit":        "Se connecter",
		"logout":              "Déconnexion",
		"dashboard":           "Tableau de bord",
		"our_models":          "Nos modèles",
		"brands":              "Marques",
		"models":              "Modèles",
		"versions":            "Versions",
		"banners":             "Bannières",
		"users":               "Utilisateurs",
		"from_price":          "À partir de",
	},
	"en": {
		"required":            "Required",
		"email":               "Invalid email address",
		"url":                 "Invalid URL",
		"hexcolor":            "Invalid hex color",
		"max":                 "Too long",
		"gte":                 "Value too small",
		"oneof":               "Value not allowed",
		"too_short":           "Too short",
		"must_be_positive":    "Must be positive",
		"out_of_range":        "Out of range",
		"invalid":             "Invalid",
		"unauthenticated":     "Authentication required",
		"profile_missing":     "User profile not found",
		"deactivated":         "This account is deactivated",
		"forbidden_not_admin": "Administrators only",
		"invalid_credentials": "Invalid email or password",
		"too_many_requests":   "Too many attempts, try again later",
		"not_found":           "Resource not found",
		"conflict":            "Conflicts with an existing resource",
		"validation_failed":   "Invalid data",
		"invalid_json":        "Invalid JSON body",
		"invalid_id":          "Invalid identifier",
		"internal_error":      "Internal error",
		"cannot_modify_self":  "You cannot remove your own access",
		"last_administrator":  "At least one active administrator is required",
		"email_taken":         "This email address is already in use",
		"login_title":         "Sign in",
		"login_submit":        "Sign in",
		"logout":              "Sign out",
		"dashboard":           "Dashboard",
		"our_models":          "Our models",
		"brands":              "Brands",
		"models":              "Models",
		"versions":            "Versions",
		"banners":             "Banners",
		"users":               "Users",
		"from_price":          "From",
	},
}

// T translates code into lang. Unknown languages fall back to DefaultLang and
// unknown codes are returned as-is.
func T(lang, code string) string {
	if m, ok := messages[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := messages[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := messages[lang]
	return ok
}

// DetectLanguage picks the first supported primary tag of an Accept-Language header.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if primary != "" && Supported(primary) {
			return primary
		}
	}
	return DefaultLang
}

type langKey struct{}

func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFrom returns the request language stored by WithLang, or DefaultLang.
func LangFrom(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return DefaultLang
}
