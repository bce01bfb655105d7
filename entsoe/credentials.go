package entsoe

import "os"

type Credentials struct {
	Username string
	Password string
}

// CredentialsSource is asked for credentials once, when logging in.
type CredentialsSource func() (Credentials, error)

// CredentialsFromEnv reads the credentials from two environment variables.
func CredentialsFromEnv(usernameVar, passwordVar string) CredentialsSource {
	return func() (Credentials, error) {
		var missing []string
		username, ok := os.LookupEnv(usernameVar)
		if !ok || username == "" {
			missing = append(missing, usernameVar)
		}
		password, ok := os.LookupEnv(passwordVar)
		if !ok || password == "" {
			missing = append(missing, passwordVar)
		}
		if len(missing) > 0 {
			return Credentials{}, &MissingCredentialsError{Vars: missing}
		}
		return Credentials{Username: username, Password: password}, nil
	}
}

func StaticCredentials(username, password string) CredentialsSource {
	return func() (Credentials, error) {
		return Credentials{Username: username, Password: password}, nil
	}
}
