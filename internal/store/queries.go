package store

// SQL query constants. All SQL lives here; PostgresStore methods reference
// these constants.

const querySelectTokens = `SELECT profile, access_token, refresh_token, token_type,
	expires_in, expiry, raw, updated_at
FROM oauth_tokens`

const (
	queryGetToken = querySelectTokens + ` WHERE profile = $1`

	queryUpsertToken = `
		INSERT INTO oauth_tokens (
			profile, user_id, access_token, refresh_token, token_type,
			expires_in, expiry, raw, created_at, updated_at
		) VALUES (
			@profile, @user_id, @access_token, @refresh_token, @token_type,
			@expires_in, @expiry, @raw, now(), now()
		)
		ON CONFLICT (profile) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_type = EXCLUDED.token_type,
			expires_in = EXCLUDED.expires_in,
			expiry = EXCLUDED.expiry,
			raw = EXCLUDED.raw,
			updated_at = now()
		RETURNING updated_at`

	queryDeleteToken = `DELETE FROM oauth_tokens WHERE profile = $1`
)
