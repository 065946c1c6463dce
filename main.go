package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"mira/pkg/cache"
	"mira/pkg/chat"
	"mira/pkg/config"
	"mira/pkg/embedding"
	"mira/pkg/knowledge"
	"mira/pkg/llm"
	"mira/pkg/memory"
	"mira/pkg/safety"
	"mira/pkg/surreal"

	"github.com/joho/godotenv"
)

const historySize = 5

var emotions = []string{"happy", "sad", "angry", "surprised", "neutral", "confused", "excited", "worried"}

func main() {
	// Load config.yml
	cfg, err := config.LoadConfig("config.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Load .env for secrets
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	llmKeys := os.Getenv("LLM_API_KEYS")
	if llmKeys == "" {
		log.Fatal("Missing required environment variable: LLM_API_KEYS")
	}

	llmBaseURL := os.Getenv("LLM_BASE_URL")
	if llmBaseURL == "" {
		llmBaseURL = "http://localhost:8080/v1"
	}

	var models []llm.ModelConfig
	if modelID := os.Getenv("LLM_MODEL"); modelID != "" {
		models = []llm.ModelConfig{{ID: modelID, MaxCtx: 8192, MaxToken: 512}}
	}

	llmClient := llm.NewClient(
		llmBaseURL,
		llmKeys,
		cfg.ModelSettings.Temperature,
		cfg.ModelSettings.TopP,
		cfg.ModelSettings.MaxTokens,
		models,
	)

	// Knowledge retrieval is optional; without an embedding backend the
	// assistant still chats, just without grounding facts.
	retriever := buildRetriever(cfg)

	// Initialize Memory Store
	store, err := memory.NewFileStore(cfg.Memory.StoragePath, cfg.Memory.ShortTermSize)
	if err != nil {
		log.Fatalf("Failed to open memory store: %v", err)
	}

	filter := safety.NewFilter()
	classifier := chat.NewCachedClassifier(filter, cfg.Safety.ClassifierCacheSize)

	handler := chat.NewHandler(
		llmClient,
		classifier,
		retriever,
		store,
		cfg.Safety.MaxResponseLength,
		cfg.Retrieval.TopK,
		historySize,
	)

	reader := bufio.NewReader(os.Stdin)

	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("MIRA - AI COMPANION FOR KIDS")
	fmt.Println(strings.Repeat("=", 60))

	age := setupProfile(reader, store)
	chatLoop(reader, handler, store, filter, age)
}

// buildRetriever wires the embedding client, its caches and the knowledge
// index. Returns nil when no embedding backend is configured.
func buildRetriever(cfg *config.Config) chat.Retriever {
	embeddingKey := os.Getenv("EMBEDDING_API_KEY")
	if embeddingKey == "" {
		log.Println("EMBEDDING_API_KEY not set, knowledge retrieval disabled")
		return nil
	}

	embeddingURL := os.Getenv("EMBEDDING_API_URL")
	if embeddingURL == "" {
		embeddingURL = "http://localhost:8081/embed"
	}

	var embedder embedding.Embedder = embedding.NewCachedClient(
		embedding.NewClient(embeddingKey, embeddingURL),
		cfg.Retrieval.EmbeddingCacheSize,
	)

	// Optional Redis layer on top of the in-process LRU
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		redisCache, err := cache.NewRedisCache(redisURL, "mira")
		if err != nil {
			log.Printf("Redis unavailable, continuing with in-memory cache only: %v", err)
		} else {
			embedder = embedding.NewRedisCachedClient(embedder, redisCache)
			log.Println("Redis embedding cache enabled")
		}
	}

	store, err := buildKnowledgeStore()
	if err != nil {
		log.Printf("Knowledge store unavailable, retrieval disabled: %v", err)
		return nil
	}

	return knowledge.NewAugmenter(embedder, store, cfg.Retrieval.SimilarityThreshold)
}

// buildKnowledgeStore prefers SurrealDB when configured and falls back to
// the local file index.
func buildKnowledgeStore() (knowledge.Store, error) {
	surrealHost := os.Getenv("SURREAL_DB_HOST")
	if surrealHost == "" {
		log.Println("SURREAL_DB_HOST not set, using local file knowledge index")
		return knowledge.NewFileStore("data/knowledge_index.json")
	}

	surrealUser := os.Getenv("SURREAL_DB_USER")
	surrealPass := os.Getenv("SURREAL_DB_PASS")
	surrealNS := os.Getenv("SURREAL_DB_NAMESPACE")
	surrealDB := os.Getenv("SURREAL_DB_DATABASE")
	if surrealUser == "" || surrealPass == "" {
		return nil, fmt.Errorf("SURREAL_DB_HOST set but SURREAL_DB_USER or SURREAL_DB_PASS missing")
	}
	if surrealNS == "" {
		surrealNS = "mira"
	}
	if surrealDB == "" {
		surrealDB = "knowledge"
	}

	dimension := 768
	if dim := os.Getenv("KNOWLEDGE_VECTOR_DIM"); dim != "" {
		if n, err := strconv.Atoi(dim); err == nil && n > 0 {
			dimension = n
		}
	}

	// Add protocol if missing
	if !strings.HasPrefix(surrealHost, "ws://") && !strings.HasPrefix(surrealHost, "wss://") {
		surrealHost = "wss://" + surrealHost + "/rpc"
	}

	log.Printf("Connecting to SurrealDB at %s (NS: %s, DB: %s)", surrealHost, surrealNS, surrealDB)
	client, err := surreal.NewClient(surrealHost, surrealUser, surrealPass, surrealNS, surrealDB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	return knowledge.NewSurrealStore(client, dimension), nil
}

// setupProfile asks for name, age and remembering consent. Everything is
// skippable; nothing is stored without a yes.
func setupProfile(reader *bufio.Reader, store *memory.FileStore) int {
	age := 8

	fmt.Print("\nWhat's your name? (or press Enter to skip): ")
	name := readLine(reader)
	if name == "" {
		fmt.Println("Okay, let's just chat!")
		return age
	}

	fmt.Print("How old are you? (5-16): ")
	if n, err := strconv.Atoi(readLine(reader)); err == nil && n >= 5 && n <= 16 {
		age = n
	} else {
		fmt.Println("Let's go with 8!")
	}

	fmt.Print("\nCan I remember your name and preferences? (yes/no): ")
	if strings.ToLower(readLine(reader)) != "yes" {
		fmt.Printf("No problem, %s! I won't remember anything between chats.\n", name)
		return age
	}

	if err := store.SetConsent(true); err != nil {
		log.Printf("Error saving consent: %v", err)
	}

	update := memory.ProfileUpdate{Name: &name, Age: &age}

	fmt.Print("What's your favorite color? (optional): ")
	if color := readLine(reader); color != "" {
		update.FavoriteColor = &color
	}
	fmt.Print("What's your favorite subject? (optional): ")
	if subject := readLine(reader); subject != "" {
		update.FavoriteSubject = &subject
	}

	if _, err := store.SetProfile(update); err != nil {
		log.Printf("Error saving profile: %v", err)
	}
	fmt.Printf("Nice to meet you, %s!\n", name)
	return age
}

func chatLoop(reader *bufio.Reader, handler *chat.Handler, store *memory.FileStore, filter *safety.Filter, age int) {
	emotion := "neutral"

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("CHAT MODE")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Commands:")
	fmt.Println("  /emotion - Change emotion")
	fmt.Println("  /stats   - View statistics")
	fmt.Println("  /clear   - Clear recent conversation")
	fmt.Println("  /quit    - Exit chat")
	fmt.Println(strings.Repeat("=", 60))

	for {
		fmt.Printf("\n[%s] You: ", emotion)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			switch input {
			case "/quit":
				fmt.Println("\nGoodbye!")
				return
			case "/emotion":
				emotion = pickEmotion(reader)
			case "/stats":
				showStats(store, filter)
			case "/clear":
				if err := store.ClearShortTerm(); err != nil {
					log.Printf("Error clearing conversation: %v", err)
				} else {
					fmt.Println("Recent conversation cleared.")
				}
			default:
				fmt.Println("Unknown command. Type /quit to exit.")
			}
			continue
		}

		reply := handler.Respond(context.Background(), chat.Turn{
			Question:   input,
			Emotion:    emotion,
			Confidence: 1.0, // manually set emotion
			Age:        age,
		})
		fmt.Printf("Mira: %s\n", reply.Text)
	}
}

func pickEmotion(reader *bufio.Reader) string {
	fmt.Println("\nAvailable emotions:", strings.Join(emotions, ", "))
	fmt.Print("Set emotion (or press Enter for neutral): ")
	choice := strings.ToLower(readLine(reader))
	for _, e := range emotions {
		if choice == e {
			fmt.Printf("Emotion set to: %s\n", e)
			return e
		}
	}
	fmt.Println("Using neutral.")
	return "neutral"
}

func showStats(store *memory.FileStore, filter *safety.Filter) {
	stats := store.Stats()
	blocked, redirected := filter.Stats()

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("STATISTICS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Total interactions: %d\n", stats.TotalInteractions)
	fmt.Printf("Recent messages:    %d\n", stats.ShortTermCount)
	fmt.Printf("Topics discussed:   %d\n", stats.TopicsCount)
	fmt.Printf("Remembering:        %v\n", stats.HasConsent)
	if stats.LastInteraction != nil {
		fmt.Printf("Last interaction:   %s\n", stats.LastInteraction.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("Safety blocks:      %d blocked, %d redirected\n", blocked, redirected)
	fmt.Println(strings.Repeat("=", 60))
}

func readLine(reader *bufio.Reader) string {
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}
