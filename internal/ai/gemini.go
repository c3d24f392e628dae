// README: Gemini-backed Provider (classification, extraction, composition, embeddings).
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	generativeModel = "gemini-2.0-flash"
	embeddingModel  = "text-embedding-004"
)

// GeminiProvider implements Provider and Embedder using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client

	classify *genai.GenerativeModel
	extract  *genai.GenerativeModel
	compose  *genai.GenerativeModel
	embed    *genai.EmbeddingModel
}

// NewGeminiProvider initializes a new Gemini client. apiKey comes from the
// environment via config.
func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	classify := client.GenerativeModel(generativeModel)
	classify.ResponseMIMEType = "application/json"
	classify.SetTemperature(0.0)

	extract := client.GenerativeModel(generativeModel)
	extract.ResponseMIMEType = "application/json"
	extract.SetTemperature(0.0)

	compose := client.GenerativeModel(generativeModel)
	compose.SetTemperature(0.2)

	return &GeminiProvider{
		client:   client,
		classify: classify,
		extract:  extract,
		compose:  compose,
		embed:    client.EmbeddingModel(embeddingModel),
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

const classifySystemPrompt = `Você é um classificador de intenções para um assistente de reservas de um restaurante integrado à plataforma GET IN.

Leia a mensagem do usuário (em português do Brasil) e decida QUAL é a intenção principal, escolhendo EXATAMENTE UM dos rótulos:

- check_availability    -> o usuário quer saber se há mesa/disponibilidade para um dia/horário/número de pessoas.
                           Ex.: "tem mesa pra 4 hoje às 20h?", "vocês têm disponibilidade amanhã no jantar?"
- create_reservation    -> o usuário quer criar/efetuar uma reserva nova (inclui "sim, pode reservar" após uma consulta de disponibilidade).
                           Ex.: "quero reservar sábado às 21h para 2 pessoas", "pode reservar essa mesa?"
- view_next_reservation -> o usuário quer consultar a próxima reserva dele.
                           Ex.: "qual é minha próxima reserva?", "tenho reserva para hoje?"
- cancel_reservation    -> o usuário quer cancelar uma reserva existente.
                           Ex.: "quero cancelar minha reserva de hoje às 20h"
- restaurant_faq        -> perguntas gerais sobre o restaurante (cardápio, dress code, endereço, pets, opções veganas...).
- none                  -> a mensagem não se encaixa claramente em nenhuma das anteriores, ou é apenas uma resposta curta ("sim", "não", "ok") ou dados soltos (nome, telefone, e-mail).

Responda SOMENTE com um JSON válido no formato:
{"intent": "<rótulo>", "confidence": <número entre 0 e 1>}

Sem comentários e sem nada antes ou depois do JSON.`

// Classify implements Provider.
func (p *GeminiProvider) Classify(ctx context.Context, utterance string, recentTurns []string) (Classification, error) {
	prompt := classifySystemPrompt + historyBlock(recentTurns) + "\n\nMensagem do usuário:\n" + utterance

	text, err := generateText(ctx, p.classify, prompt)
	if err != nil {
		return Classification{}, err
	}

	var result Classification
	if err := json.Unmarshal([]byte(cleanJSONString(text)), &result); err != nil {
		return Classification{}, fmt.Errorf("failed to parse classification JSON: %w. Raw: %s", err, text)
	}
	result.Intent = normalizeIntentLabel(result.Intent)
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return result, nil
}

const extractSystemPrompt = `Você extrai parâmetros estruturados de uma mensagem de usuário para um assistente de reservas de restaurante. A mensagem está em português do Brasil.

Retorne um JSON com os campos:
{
  "date": string ou null,              // data mencionada (ex: "hoje", "amanhã", "2024-03-10", "10/03/2024")
  "time": string ou null,              // horário mencionado (ex: "20h", "19:30", "no almoço")
  "party_size": número ou null,        // quantidade de pessoas
  "name": string ou null,              // nome da pessoa, se mencionado
  "phone": string ou null,             // telefone/celular, se mencionado
  "email": string ou null,             // e-mail, se mencionado
  "reservation_code": string ou null,  // código de reserva, se mencionado
  "sector": string ou null,            // setor/salão preferido, se mencionado (ex: "Salão Principal", "varanda")
  "notes": string ou null              // qualquer informação adicional relevante (ex: "mesa na janela", "aniversário")
}

Regras:
- Se um campo não estiver claro na mensagem, use null.
- Não invente dados; preencha apenas o que estiver explícito ou muito óbvio.
- Não repita valores que já constam em "Valores já conhecidos" a menos que o usuário os corrija.
- O JSON deve ser VÁLIDO. NÃO escreva nada antes ou depois do JSON.`

// Extract implements Provider.
func (p *GeminiProvider) Extract(ctx context.Context, utterance string, recentTurns []string, knownSlots map[string]string) (SlotPatch, error) {
	var b strings.Builder
	b.WriteString(extractSystemPrompt)
	b.WriteString(historyBlock(recentTurns))
	if len(knownSlots) > 0 {
		known, _ := json.Marshal(knownSlots)
		b.WriteString("\n\nValores já conhecidos:\n")
		b.Write(known)
	}
	b.WriteString("\n\nMensagem do usuário:\n")
	b.WriteString(utterance)

	text, err := generateText(ctx, p.extract, b.String())
	if err != nil {
		return SlotPatch{}, err
	}

	raw := extractJSONObject(text)
	var patch SlotPatch
	if err := json.Unmarshal([]byte(raw), &patch); err != nil {
		return SlotPatch{}, fmt.Errorf("failed to parse extraction JSON: %w. Raw: %s", err, text)
	}
	return patch, nil
}

// Compose implements Provider. The prompt forces the reply to stay grounded
// in the decision payload: no invented availability, no "confirmed" status
// for pending reservations.
func (p *GeminiProvider) Compose(ctx context.Context, req ComposeRequest) (string, error) {
	lang := req.Language
	if lang == "" {
		lang = "pt-BR"
	}
	payload, err := json.Marshal(req.Data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal compose data: %w", err)
	}

	prompt := fmt.Sprintf(`Você é um assistente virtual de reservas de um restaurante, respondendo em %s.

Você recebeu a decisão do orquestrador de diálogo e os dados de apoio em JSON. Sua tarefa é escrever APENAS a mensagem final para o usuário, sem mencionar JSON, APIs ou detalhes técnicos internos.

Regras importantes:
- Responda somente com base nos dados fornecidos; NUNCA invente disponibilidade, reservas ou informações do restaurante.
- NUNCA diga que uma reserva está "confirmada" se o status for "pending"; diga que foi criada e está pendente de confirmação.
- Se houver um código de reserva nos dados, inclua-o como "código da reserva".
- Se a decisão for "ask_slots", peça TODOS os campos listados em uma única pergunta natural.
- Se a decisão for "ask_confirmation", descreva a ação pendente e peça uma confirmação explícita (sim/não).
- Se houver um erro de regra de negócio de duplicidade ("mesmo celular ou e-mail no mesmo dia/horário"), explique que não é falta de disponibilidade e peça um horário alternativo.
- Se a decisão for "error", peça desculpas de forma breve e diga que as informações já fornecidas foram preservadas.

Pergunta do usuário:
%s

Intenção reconhecida: %s
Decisão do orquestrador: %s
Dados de apoio (JSON):
%s

Agora responda apenas a mensagem final para o usuário.`, lang, req.UserMessage, req.Intent, req.Decision, payload)

	return generateText(ctx, p.compose, prompt)
}

// EmbedTexts implements Embedder using the batch embedding API.
func (p *GeminiProvider) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	batch := p.embed.NewBatch()
	for _, t := range texts {
		batch.AddContent(genai.Text(t))
	}
	resp, err := p.embed.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("gemini: embed contents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

func generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", fmt.Errorf("gemini: API returned empty text parts")
	}
	return out, nil
}

func historyBlock(recentTurns []string) string {
	if len(recentTurns) == 0 {
		return ""
	}
	return "\n\nÚltimas mensagens da conversa (da mais antiga para a mais recente):\n- " +
		strings.Join(recentTurns, "\n- ")
}

// normalizeIntentLabel coerces model output ("Intent: create_reservation",
// "intenção: restaurant_faq", "other") into the allowed label set.
func normalizeIntentLabel(raw string) string {
	text := strings.ToLower(strings.TrimSpace(raw))
	for _, prefix := range []string{"intent:", "intenção:", "intencao:", "label:", "rótulo:", "rotulo:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	if AllowedIntents[text] {
		return text
	}
	for intent := range AllowedIntents {
		if strings.Contains(text, intent) {
			return intent
		}
	}
	return IntentNone
}

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}

// extractJSONObject returns the first {...} block when the model wraps the
// JSON in extra text; otherwise the cleaned input as-is.
func extractJSONObject(text string) string {
	text = cleanJSONString(text)
	if json.Valid([]byte(text)) {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}
