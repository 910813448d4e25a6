package api

const createAccountSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["account_id", "initial_balance"],
  "properties": {
    "account_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "initial_balance": {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}
  }
}`

const transactionSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["transaction_id", "account_id", "type", "amount"],
  "properties": {
    "transaction_id": {"type": "string", "minLength": 1, "maxLength": 128},
    "account_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "type": {"type": "string", "enum": ["deposit", "withdrawal", "transfer"]},
    "amount": {"type": "string", "pattern": "^-?[0-9]+(\\.[0-9]+)?$"}
  }
}`
