package database

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
    id VARCHAR(64) PRIMARY KEY,
    plan VARCHAR(16) NOT NULL DEFAULT 'free',
    credits INT NOT NULL DEFAULT 0,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
)`,

	`CREATE TABLE IF NOT EXISTS ledger_transactions (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    delta INT NOT NULL,
    reason VARCHAR(32) NOT NULL,
    correlation_id VARCHAR(64),
    dedupe_key VARCHAR(64) GENERATED ALWAYS AS (IF(reason = 'purchase-credit', correlation_id, NULL)) STORED,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_purchase_dedupe (dedupe_key),
    KEY idx_ledger_user (user_id),
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,

	`CREATE TABLE IF NOT EXISTS purchase_orders (
    id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    amount INT NOT NULL,
    credits INT NOT NULL,
    status VARCHAR(16) NOT NULL,
    gateway_order_id VARCHAR(128) NOT NULL,
    fail_reason VARCHAR(255),
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,

	`CREATE TABLE IF NOT EXISTS generations (
    id VARCHAR(64) PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    product_ref VARCHAR(255) NOT NULL,
    model_id VARCHAR(32) NOT NULL,
    pose_id VARCHAR(32) NOT NULL,
    scene_id VARCHAR(32) NOT NULL,
    prompt TEXT NOT NULL,
    requested INT NOT NULL,
    succeeded INT NOT NULL DEFAULT 0,
    credits_charged INT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users(id)
)`,

	`CREATE TABLE IF NOT EXISTS generation_images (
    id BIGINT AUTO_INCREMENT PRIMARY KEY,
    generation_id VARCHAR(64) NOT NULL,
    slot INT NOT NULL,
    status VARCHAR(16) NOT NULL,
    image_url VARCHAR(512),
    error TEXT,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    UNIQUE KEY uniq_generation_slot (generation_id, slot),
    FOREIGN KEY (generation_id) REFERENCES generations(id)
)`,
}
