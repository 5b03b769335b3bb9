package models

// These structs define the JSON payloads carried by the CloudEvents that trigger
// the two functions, and the message relayed between them over Pub/Sub.

// UploadEvent is the data of a google.cloud.storage.object.v1.finalized event.
// Only Bucket and Name are required; the rest is used for log context.
type UploadEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        string `json:"size,omitempty"`
	Generation  string `json:"generation,omitempty"`
}

// ResultMessage is published by the image processor and consumed by the result saver.
// Text is empty when no text was detected.
type ResultMessage struct {
	Text     string `json:"text"`
	Filename string `json:"filename"`
}

// PubSubMessage is the message carried in a Pub/Sub CloudEvent. Data is base64.
type PubSubMessage struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	MessageID   string            `json:"messageId,omitempty"`
	PublishTime string            `json:"publishTime,omitempty"`
}

// MessagePublishedData is the data of a google.cloud.pubsub.topic.v1.messagePublished event.
type MessagePublishedData struct {
	Message      PubSubMessage `json:"message"`
	Subscription string        `json:"subscription,omitempty"`
}
